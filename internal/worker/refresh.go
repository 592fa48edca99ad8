package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/weather"
)

// WeatherWarmer is the part of the weather service the job drives.
type WeatherWarmer interface {
	FetchWeather(ctx context.Context, c geo.Coordinate, t time.Time) (*weather.Sample, error)
	CacheStats() weather.CacheStats
	InvalidateCache()
}

// RefreshJob pre-fetches forecasts for the configured anchorages so that
// interactive requests are served from cache.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	weather WeatherWarmer
	now     func() time.Time

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	SamplesFetched    int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration

	// Cache stats
	CacheHits   int64
	CacheMisses int64
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config         RefreshConfig
	Logger         zerolog.Logger
	WeatherService WeatherWarmer

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = DefaultRefreshTargets()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if len(config.HorizonHours) == 0 {
		config.HorizonHours = []int{0}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &RefreshJob{
		config:  config,
		logger:  cfg.Logger,
		weather: cfg.WeatherService,
		now:     now,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Errors      []RefreshError
	CacheHits   int
	CacheMisses int
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Point geo.Coordinate
	Time  time.Time
	Error string
}

// Run refreshes every configured point at every horizon. Points are
// processed by a fixed pool of workers; a failed point does not stop the
// others.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := j.now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting weather refresh job")

	var before weather.CacheStats
	if j.weather != nil {
		before = j.weather.CacheStats()
	}

	points := j.config.AllPoints()
	base := startTime.UTC().Truncate(time.Hour)

	pointsChan := make(chan geo.Coordinate, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, base, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var fetched int64
	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		fetched += int64(pr.fetched)
		result.Errors = append(result.Errors, pr.errors...)
	}

	if j.weather != nil {
		after := j.weather.CacheStats()
		result.CacheHits = int(after.Samples.Hits - before.Samples.Hits)
		result.CacheMisses = int(after.Samples.Misses - before.Samples.Misses)
	}

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result, fetched)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("cache_hits", result.CacheHits).
		Int("cache_misses", result.CacheMisses).
		Msg("weather refresh job completed")

	return result
}

type pointResult struct {
	success bool
	fetched int
	errors  []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, base time.Time, points <-chan geo.Coordinate, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			results <- pointResult{errors: []RefreshError{{Point: point, Time: base, Error: ctx.Err().Error()}}}
		default:
			results <- j.refreshPoint(ctx, base, point)
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, base time.Time, point geo.Coordinate) pointResult {
	result := pointResult{success: true}
	if j.weather == nil {
		return result
	}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	for _, h := range j.config.HorizonHours {
		at := base.Add(time.Duration(h) * time.Hour)
		if _, err := j.weather.FetchWeather(pointCtx, point, at); err != nil {
			result.errors = append(result.errors, RefreshError{
				Point: point,
				Time:  at,
				Error: err.Error(),
			})
			result.success = false
			continue
		}
		result.fetched++
	}

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult, fetched int64) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.SamplesFetched += fetched
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
	j.metrics.CacheHits += int64(result.CacheHits)
	j.metrics.CacheMisses += int64(result.CacheMisses)
}

// InvalidateCache drops the weather caches before a forced refresh.
func (j *RefreshJob) InvalidateCache() {
	if j.weather != nil {
		j.weather.InvalidateCache()
	}
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		SamplesFetched:      j.metrics.SamplesFetched,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
		CacheHits:           j.metrics.CacheHits,
		CacheMisses:         j.metrics.CacheMisses,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"samples_fetched":       m.SamplesFetched,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
		"cache_hits":            m.CacheHits,
		"cache_misses":          m.CacheMisses,
	}
}
