package resilience_test

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/provider/resilience"
)

func TestClient_SuccessfulRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	cfg := resilience.DefaultClientConfig("test", resilience.LegForecast)
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_RetryOn5xx(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	breaker := neverTrip()

	cfg := resilience.ClientConfig{
		Name:            "test-retry",
		Timeout:         5 * time.Second,
		MaxRetries:      5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Breaker:         &breaker,
	}
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load(), "should have retried until success")
}

func TestClient_CircuitBreakerTrips(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// Five straight failures open the breaker
	breaker := resilience.BreakerConfig{OpenFor: time.Second, TripAfter: 5, TripMinRequests: 5}

	cfg := resilience.ClientConfig{
		Name:            "test-trip",
		Timeout:         1 * time.Second,
		MaxRetries:      0, // No retries for this test
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Breaker:         &breaker,
	}
	client := resilience.NewClient(cfg)

	// Make 5 failing requests to trip the circuit
	for i := 0; i < 5; i++ {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		resp, _ := client.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
	}

	// Circuit should be open now
	assert.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())

	// Next request should fail immediately with ErrCircuitOpen
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestClient_TimeoutHandling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	breaker := neverTrip()

	cfg := resilience.ClientConfig{
		Name:            "test-timeout",
		Timeout:         100 * time.Millisecond, // Very short timeout
		MaxRetries:      0,                      // No retries
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Breaker:         &breaker,
	}
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	assert.Error(t, err, "should timeout")
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(1 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := resilience.DefaultClientConfig("test-cancel", resilience.LegForecast)
	client := resilience.NewClient(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	// Cancel the context after a short delay
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	assert.Error(t, err, "should be canceled")
}

func TestClient_4xxNotRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := resilience.ClientConfig{
		Name:            "test-4xx",
		Timeout:         5 * time.Second,
		MaxRetries:      3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
	}
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load(), "should not retry 4xx errors")
}

func TestClient_RetryClientErrors(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := resilience.ClientConfig{
		Name:              "test-429",
		Timeout:           5 * time.Second,
		MaxRetries:        2,
		InitialInterval:   10 * time.Millisecond,
		MaxInterval:       40 * time.Millisecond,
		RetryClientErrors: true,
	}
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClient_RetriesExhaustedReturnsLastResponse(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	breaker := neverTrip()

	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.ClientConfig{
		Name:            "test-exhaust",
		MaxRetries:      2,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     40 * time.Millisecond,
		Breaker:         &breaker,
		Registry:        registry,
	})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load(), "one attempt plus two retries")

	health := registry.Health("test-exhaust")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastFailureAt)
	assert.Nil(t, health.LastSuccessAt)
	assert.Equal(t, resilience.FailureUpstream, health.LastErrorKind)
}

func TestClient_RecordsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("test-success", resilience.LegMarine)
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	health := registry.Health("test-success")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.Equal(t, resilience.LegMarine, health.Leg)
}

func TestClientError(t *testing.T) {
	err := &resilience.ClientError{StatusCode: http.StatusTooManyRequests}
	assert.Contains(t, err.Error(), "Too Many Requests")
}

func TestDefaultBreakerConfig(t *testing.T) {
	cfg := resilience.DefaultBreakerConfig()

	assert.Equal(t, uint32(1), cfg.HalfOpenRequests)
	assert.Equal(t, 60*time.Second, cfg.OpenFor)
	assert.Equal(t, uint32(3), cfg.TripAfter)
	assert.Equal(t, 10*time.Minute, cfg.ResetEvery)
}

func TestBreakerConfig_ShouldTrip(t *testing.T) {
	cfg := resilience.DefaultBreakerConfig()

	tests := []struct {
		name     string
		counts   gobreaker.Counts
		expected bool
	}{
		{
			name:     "two straight failures",
			counts:   gobreaker.Counts{Requests: 2, TotalFailures: 2, ConsecutiveFailures: 2},
			expected: false,
		},
		{
			name:     "three straight failures",
			counts:   gobreaker.Counts{Requests: 3, TotalFailures: 3, ConsecutiveFailures: 3},
			expected: true,
		},
		{
			name:     "scattered failures below ratio",
			counts:   gobreaker.Counts{Requests: 10, TotalFailures: 4, ConsecutiveFailures: 1},
			expected: false,
		},
		{
			name:     "scattered failures at ratio",
			counts:   gobreaker.Counts{Requests: 10, TotalFailures: 5, ConsecutiveFailures: 1},
			expected: true,
		},
		{
			name:     "ratio ignored before min requests",
			counts:   gobreaker.Counts{Requests: 4, TotalFailures: 2, ConsecutiveFailures: 1},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cfg.ShouldTrip(tt.counts))
		})
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := resilience.DefaultClientConfig("test-client", resilience.LegMarine)

	assert.Equal(t, "test-client", cfg.Name)
	assert.Equal(t, resilience.LegMarine, cfg.Leg)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(2), cfg.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.InitialInterval)
	assert.Equal(t, 4*time.Second, cfg.MaxInterval)
	assert.False(t, cfg.RetryClientErrors)
	require.NotNil(t, cfg.Breaker)
}

func TestServerError(t *testing.T) {
	err := &resilience.ServerError{StatusCode: http.StatusInternalServerError}
	assert.Contains(t, err.Error(), "Internal Server Error")
}

func TestClient_OpenBreakerServesFromCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var buf bytes.Buffer
	registry := resilience.NewRegistry()
	breaker := resilience.BreakerConfig{OpenFor: time.Minute, TripAfter: 2}
	client := resilience.NewClient(resilience.ClientConfig{
		Name:            "marine",
		Leg:             resilience.LegMarine,
		MaxRetries:      1,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Breaker:         &breaker,
		Registry:        registry,
		Logger:          zerolog.New(&buf),
	})

	get := func() error {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		resp, err := client.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}

	_ = get() //nolint:errcheck // trips the breaker on its second attempt
	assert.ErrorIs(t, get(), resilience.ErrCircuitOpen)

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"leg":"marine"`)
	assert.Contains(t, buf.String(), "serving from cache")

	health := registry.Health("marine")
	require.NotNil(t, health)
	assert.True(t, health.ServingFromCache())
	assert.NotNil(t, health.OpenedAt)
	assert.Equal(t, resilience.FailureCircuitOpen, health.LastErrorKind)

	legs := registry.Legs()
	require.Len(t, legs, 1)
	assert.Equal(t, resilience.ModeCacheOnly, legs[0].Mode)
	assert.True(t, legs[0].ServingFromCache())
}

func neverTrip() resilience.BreakerConfig {
	return resilience.BreakerConfig{TripAfter: math.MaxUint32, TripMinRequests: math.MaxUint32}
}
