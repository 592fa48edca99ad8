package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/provider/resilience"
)

func register(registry *resilience.Registry, name string, leg resilience.Leg) *resilience.Client {
	cfg := resilience.DefaultClientConfig(name, leg)
	cfg.Registry = registry
	return resilience.NewClient(cfg)
}

func TestRegistry_ProvidersSortedWithLeg(t *testing.T) {
	registry := resilience.NewRegistry()
	register(registry, "open-meteo-marine", resilience.LegMarine)
	register(registry, "open-meteo-forecast", resilience.LegForecast)

	providers := registry.Providers()
	require.Len(t, providers, 2)

	assert.Equal(t, "open-meteo-forecast", providers[0].Name)
	assert.Equal(t, resilience.LegForecast, providers[0].Leg)
	assert.Equal(t, "open-meteo-marine", providers[1].Name)
	assert.Equal(t, resilience.LegMarine, providers[1].Leg)

	for _, p := range providers {
		assert.Equal(t, gobreaker.StateClosed, p.CircuitState)
		assert.Equal(t, resilience.ModeLive, p.Mode())
		assert.False(t, p.ServingFromCache())
		assert.Nil(t, p.OpenedAt)
	}
}

func TestRegistry_RecordFailureKeepsKind(t *testing.T) {
	registry := resilience.NewRegistry()
	register(registry, "open-meteo-forecast", resilience.LegForecast)

	registry.RecordFailure("open-meteo-forecast", resilience.FailureDecoding, errors.New("hourly time series is empty"))

	health := registry.Health("open-meteo-forecast")
	require.NotNil(t, health)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, resilience.FailureDecoding, health.LastErrorKind)
	assert.Equal(t, "hourly time series is empty", health.LastError)

	registry.RecordSuccess("open-meteo-forecast")
	health = registry.Health("open-meteo-forecast")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.Equal(t, resilience.FailureDecoding, health.LastErrorKind, "success does not erase the last failure")
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.Nil(t, registry.Health("nonexistent"))
	assert.Empty(t, registry.Legs())

	// Should not panic
	registry.RecordSuccess("nonexistent")
	registry.RecordFailure("nonexistent", resilience.FailureNetwork, assert.AnError)
}

func TestRegistry_LegTakesLatestFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	register(registry, "marine-primary", resilience.LegMarine)
	register(registry, "marine-mirror", resilience.LegMarine)
	register(registry, "forecast", resilience.LegForecast)

	registry.RecordFailure("marine-primary", resilience.FailureNetwork, assert.AnError)
	time.Sleep(5 * time.Millisecond)
	registry.RecordFailure("marine-mirror", resilience.FailureUpstream, assert.AnError)

	legs := registry.Legs()
	require.Len(t, legs, 2)

	assert.Equal(t, resilience.LegForecast, legs[0].Leg)
	assert.Empty(t, legs[0].LastErrorKind)

	marine := legs[1]
	assert.Equal(t, resilience.LegMarine, marine.Leg)
	assert.Equal(t, []string{"marine-mirror", "marine-primary"}, marine.Providers)
	assert.Equal(t, resilience.FailureUpstream, marine.LastErrorKind)
	assert.Equal(t, resilience.ModeLive, marine.Mode)
}

func TestRegistry_OpenBreakerMarksLegCacheOnly(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	registry := resilience.NewRegistry()
	breaker := resilience.BreakerConfig{OpenFor: time.Minute, TripAfter: 1}
	forecast := resilience.NewClient(resilience.ClientConfig{
		Name:            "forecast",
		Leg:             resilience.LegForecast,
		MaxRetries:      1,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Breaker:         &breaker,
		Registry:        registry,
	})
	register(registry, "marine", resilience.LegMarine)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, down.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := forecast.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "the retry hits the open breaker and the last response is kept")

	legs := registry.Legs()
	require.Len(t, legs, 2)

	assert.Equal(t, resilience.ModeCacheOnly, legs[0].Mode)
	assert.True(t, legs[0].ServingFromCache())
	assert.NotNil(t, legs[0].OpenedAt)
	assert.Equal(t, resilience.FailureCircuitOpen, legs[0].LastErrorKind)

	assert.Equal(t, resilience.ModeLive, legs[1].Mode)
	assert.Nil(t, legs[1].OpenedAt)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want resilience.FailureKind
	}{
		{"circuit open", resilience.ErrCircuitOpen, resilience.FailureCircuitOpen},
		{"server error", &resilience.ServerError{StatusCode: http.StatusBadGateway}, resilience.FailureUpstream},
		{"wrapped client error", fmt.Errorf("%w: %w", resilience.ErrMaxRetriesExceeded, &resilience.ClientError{StatusCode: http.StatusTooManyRequests}), resilience.FailureUpstream},
		{"transport", errors.New("dial tcp: connection refused"), resilience.FailureNetwork},
		{"deadline", context.DeadlineExceeded, resilience.FailureNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resilience.ClassifyFailure(tt.err))
		})
	}
}

func TestProviderHealth_Mode(t *testing.T) {
	tests := []struct {
		state     gobreaker.State
		mode      resilience.Mode
		fromCache bool
	}{
		{gobreaker.StateClosed, resilience.ModeLive, false},
		{gobreaker.StateHalfOpen, resilience.ModeRecovering, false},
		{gobreaker.StateOpen, resilience.ModeCacheOnly, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.mode, h.Mode())
			assert.Equal(t, tt.fromCache, h.ServingFromCache())
		})
	}
}
