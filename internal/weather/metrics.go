package weather

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/denizrota/denizrota/internal/cache"
)

const meterName = "github.com/denizrota/denizrota/internal/weather"

// Metrics holds the OpenTelemetry instruments for the weather service.
type Metrics struct {
	upstreamDuration metric.Float64Histogram
	upstreamErrors   metric.Int64Counter
	meter            metric.Meter
}

// NewMetrics creates the weather service instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	upstreamDuration, err := meter.Float64Histogram(
		"weather.upstream.duration",
		metric.WithDescription("Duration of forecast provider calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	upstreamErrors, err := meter.Int64Counter(
		"weather.upstream.errors",
		metric.WithDescription("Failed forecast provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		upstreamDuration: upstreamDuration,
		upstreamErrors:   upstreamErrors,
		meter:            meter,
	}, nil
}

// observeCaches reports hit and miss totals read from cache stats on each
// collection.
func (m *Metrics) observeCaches(stats func() []cache.Stats) error {
	hits, err := m.meter.Int64ObservableCounter(
		"weather.cache.hits",
		metric.WithDescription("Weather cache hits"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return err
	}

	misses, err := m.meter.Int64ObservableCounter(
		"weather.cache.misses",
		metric.WithDescription("Weather cache misses"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return err
	}

	entries, err := m.meter.Int64ObservableGauge(
		"weather.cache.entries",
		metric.WithDescription("Entries held per weather cache"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, s := range stats() {
			attrs := metric.WithAttributes(attribute.String("cache", s.Name))
			o.ObserveInt64(hits, int64(s.Hits), attrs)     //nolint:gosec // counters stay far below MaxInt64
			o.ObserveInt64(misses, int64(s.Misses), attrs) //nolint:gosec // counters stay far below MaxInt64
			o.ObserveInt64(entries, int64(s.Entries), attrs)
		}
		return nil
	}, hits, misses, entries)
	return err
}

func (m *Metrics) recordUpstream(ctx context.Context, provider, leg string, start time.Time, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.String("leg", leg),
	}
	m.upstreamDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	if err != nil {
		m.upstreamErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
