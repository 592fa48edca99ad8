package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/cache"
	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/weather"
	"github.com/denizrota/denizrota/internal/worker"
)

type fakeWarmer struct {
	mu          sync.Mutex
	calls       []time.Time
	seen        map[string]bool
	fail        map[geo.Coordinate]bool
	invalidated int
	hits        uint64
	misses      uint64
}

func newFakeWarmer() *fakeWarmer {
	return &fakeWarmer{seen: make(map[string]bool), fail: make(map[geo.Coordinate]bool)}
}

func (f *fakeWarmer) FetchWeather(_ context.Context, c geo.Coordinate, t time.Time) (*weather.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, t)

	if f.fail[c] {
		return nil, weather.ErrUpstream
	}
	key := c.String() + t.Format(time.RFC3339)
	if f.seen[key] {
		f.hits++
	} else {
		f.misses++
		f.seen[key] = true
	}
	wind := 10.0
	return &weather.Sample{Time: t, WindSpeed: &wind}, nil
}

func (f *fakeWarmer) CacheStats() weather.CacheStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return weather.CacheStats{Samples: cache.Stats{Hits: f.hits, Misses: f.misses}}
}

func (f *fakeWarmer) InvalidateCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.seen = make(map[string]bool)
}

var fixedNow = time.Date(2026, 7, 1, 10, 42, 0, 0, time.UTC)

func testConfig(points ...geo.Coordinate) worker.RefreshConfig {
	return worker.RefreshConfig{
		Targets:      []worker.RefreshTarget{{Name: "Test", Points: points}},
		Concurrency:  2,
		Timeout:      time.Second,
		HorizonHours: []int{0, 3},
	}
}

func newJob(cfg worker.RefreshConfig, w worker.WeatherWarmer) *worker.RefreshJob {
	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         zerolog.Nop(),
		WeatherService: w,
		Now:            func() time.Time { return fixedNow },
	})
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []int{0, 3, 6}, cfg.HorizonHours)
	assert.NotEmpty(t, cfg.Targets)
}

func TestDefaultRefreshTargets(t *testing.T) {
	targets := worker.DefaultRefreshTargets()
	assert.GreaterOrEqual(t, len(targets), 5)

	var datca *worker.RefreshTarget
	for i := range targets {
		if targets[i].Name == "Datça" {
			datca = &targets[i]
		}
	}
	require.NotNil(t, datca)
	assert.Equal(t, 1, datca.Priority)
	assert.GreaterOrEqual(t, len(datca.Points), 3)
}

func TestRefreshConfig_AllPointsByPriority(t *testing.T) {
	low := geo.Coordinate{Lat: 3, Lon: 3}
	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{Name: "B", Priority: 2, Points: []geo.Coordinate{low}},
			{Name: "A", Priority: 1, Points: []geo.Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}},
		},
	}

	points := cfg.AllPoints()
	require.Len(t, points, 3)
	assert.Equal(t, low, points[2])
	assert.Equal(t, 3, cfg.TotalPoints())
}

func TestRefreshJob_WarmsEveryHorizon(t *testing.T) {
	w := newFakeWarmer()
	points := []geo.Coordinate{{Lat: 36.68, Lon: 27.56}, {Lat: 36.67, Lon: 27.50}, {Lat: 36.99, Lon: 28.20}}
	job := newJob(testConfig(points...), w)

	result := job.Run(context.Background())

	assert.Equal(t, 3, result.TotalPoints)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 6, result.CacheMisses)
	assert.Equal(t, 0, result.CacheHits)

	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	assert.ElementsMatch(t, []time.Time{base, base, base, base.Add(3 * time.Hour), base.Add(3 * time.Hour), base.Add(3 * time.Hour)}, w.calls)

	// A second run is all cache hits.
	result = job.Run(context.Background())
	assert.Equal(t, 6, result.CacheHits)
	assert.Equal(t, 0, result.CacheMisses)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalRefreshes)
	assert.Equal(t, int64(12), metrics.SamplesFetched)
	assert.Equal(t, int64(6), metrics.CacheHits)
	assert.Equal(t, fixedNow, metrics.LastRefreshAt)
}

func TestRefreshJob_CollectsErrors(t *testing.T) {
	w := newFakeWarmer()
	bad := geo.Coordinate{Lat: 36.19, Lon: 29.85}
	w.fail[bad] = true

	result := newJob(testConfig(geo.Coordinate{Lat: 36.68, Lon: 27.56}, bad), w).Run(context.Background())

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, bad, result.Errors[0].Point)
	assert.Contains(t, result.Errors[0].Error, "upstream")
}

func TestRefreshJob_NoWeatherService(t *testing.T) {
	result := newJob(testConfig(geo.Coordinate{Lat: 36.68, Lon: 27.56}), nil).Run(context.Background())
	assert.Equal(t, 1, result.Successful)
}

func TestRefreshJob_Cancelled(t *testing.T) {
	w := newFakeWarmer()
	points := make([]geo.Coordinate, 50)
	for i := range points {
		points[i] = geo.Coordinate{Lat: 36 + float64(i)*0.01, Lon: 27}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newJob(testConfig(points...), w).Run(ctx)
	assert.Equal(t, 50, result.Successful+result.Failed)
	assert.Equal(t, 50, result.Failed)
	assert.Empty(t, w.calls)
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	job := newJob(testConfig(geo.Coordinate{Lat: 36.68, Lon: 27.56}), newFakeWarmer())
	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()
	for _, key := range []string{"total_refreshes", "successful_refreshes", "failed_refreshes", "samples_fetched", "last_refresh_at", "last_refresh_duration"} {
		assert.Contains(t, snapshot, key)
	}
}

func TestHandler_Jobs(t *testing.T) {
	ctx := context.Background()
	w := newFakeWarmer()
	h := worker.NewJobHandler(newJob(testConfig(geo.Coordinate{Lat: 36.68, Lon: 27.56}), w), zerolog.Nop())

	require.NoError(t, h.Handle(ctx, []byte(`{"job_type":"weather_refresh"}`)))
	assert.Len(t, w.calls, 2)

	require.NoError(t, h.Handle(ctx, []byte(`{"job_type":"weather_refresh","invalidate":true}`)))
	assert.Equal(t, 1, w.invalidated)

	require.NoError(t, h.Handle(ctx, []byte(`{"job_type":"health_check"}`)))

	assert.ErrorIs(t, h.Handle(ctx, []byte(`{"job_type":"provider_refresh"}`)), worker.ErrUnknownJob)
	assert.ErrorIs(t, h.Handle(ctx, []byte(`not json`)), worker.ErrMalformedMessage)
	assert.NoError(t, h.Close())
}

func TestHandler_FailingRefresh(t *testing.T) {
	w := newFakeWarmer()
	bad := geo.Coordinate{Lat: 36.68, Lon: 27.56}
	w.fail[bad] = true
	w.fail[geo.Coordinate{Lat: 36.7230, Lon: 27.6870}] = true

	h := worker.NewJobHandler(newJob(testConfig(bad), w), zerolog.Nop())

	assert.Error(t, h.Handle(context.Background(), []byte(`{"job_type":"weather_refresh"}`)))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"job_type":"health_check"}`)))
}
