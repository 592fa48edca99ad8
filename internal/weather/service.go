// Package weather resolves point forecasts for routes and anchorages.
//
// Two upstream legs are combined per coordinate: an atmospheric forecast
// (wind, gusts, temperature) and a best-effort marine forecast (waves). The
// wind-driven part of the wave height is dampened by the coastal fetch along
// the downwind bearing. Raw series and resolved samples are cached for an
// hour on quantised keys.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/denizrota/denizrota/internal/cache"
	"github.com/denizrota/denizrota/internal/coastal"
	"github.com/denizrota/denizrota/internal/geo"
)

const tracerName = "github.com/denizrota/denizrota/internal/weather"

// MinFetchWindKmh is the wind speed below which direction is unreliable and
// the fetch adjustment is skipped.
const MinFetchWindKmh = 5.0

// Cache grids in degrees.
const (
	DefaultSampleGrid = 0.001 // ~100 m, per hour
	DefaultRawGrid    = 0.01  // ~1 km, whole series
)

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Atmospheric supplies wind and temperature (required).
	Atmospheric AtmosphericProvider

	// Marine supplies waves. Optional; failures fall back to calm sea.
	Marine MarineProvider

	// FetchModel computes coastal fetch (default: coastal.DefaultModel()).
	FetchModel FetchModel

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// CacheTTL applies to every cache tier (default: 1 hour).
	CacheTTL time.Duration

	// SampleGrid quantises resolved sample keys (default: 0.001 degrees).
	SampleGrid float64

	// RawGrid quantises raw series keys (default: 0.01 degrees).
	RawGrid float64

	// MaxCacheEntries caps each cache tier; 0 means unbounded.
	MaxCacheEntries int

	// GridWorkers bounds concurrent grid fetches (default: 8, max: 16).
	GridWorkers int

	// GridRate limits upstream calls during grid sampling (default: 10/s).
	GridRate rate.Limit

	// Now overrides the clock used by the caches, for tests.
	Now func() time.Time
}

// Service provides cached point forecasts.
type Service struct {
	atmospheric AtmosphericProvider
	marine      MarineProvider
	fetch       FetchModel
	logger      zerolog.Logger
	metrics     *Metrics
	tracer      trace.Tracer

	sampleGrid float64
	rawGrid    float64

	samples  *cache.Cache[*Sample]
	windOnly *cache.Cache[*Sample]
	rawAtm   *cache.Cache[*HourlySeries]
	rawSea   *cache.Cache[*MarineSeries]

	gridWorkers int
	gridLimiter *rate.Limiter
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	fetch := cfg.FetchModel
	if fetch == nil {
		fetch = coastal.DefaultModel()
	}

	sampleGrid := cfg.SampleGrid
	if sampleGrid == 0 {
		sampleGrid = DefaultSampleGrid
	}

	rawGrid := cfg.RawGrid
	if rawGrid == 0 {
		rawGrid = DefaultRawGrid
	}

	workers := cfg.GridWorkers
	if workers <= 0 {
		workers = 8
	}
	if workers > 16 {
		workers = 16
	}

	gridRate := cfg.GridRate
	if gridRate == 0 {
		gridRate = 10
	}

	cacheCfg := func(name string) cache.Config {
		return cache.Config{Name: name, TTL: cfg.CacheTTL, MaxEntries: cfg.MaxCacheEntries, Now: cfg.Now}
	}

	s := &Service{
		atmospheric: cfg.Atmospheric,
		marine:      cfg.Marine,
		fetch:       fetch,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		tracer:      otel.Tracer(tracerName),
		sampleGrid:  sampleGrid,
		rawGrid:     rawGrid,
		samples:     cache.New[*Sample](cacheCfg("sample")),
		windOnly:    cache.New[*Sample](cacheCfg("wind_only")),
		rawAtm:      cache.New[*HourlySeries](cacheCfg("raw_atmospheric")),
		rawSea:      cache.New[*MarineSeries](cacheCfg("raw_marine")),
		gridWorkers: workers,
		gridLimiter: rate.NewLimiter(gridRate, workers),
	}

	if s.metrics != nil {
		if err := s.metrics.observeCaches(s.cacheStats); err != nil {
			s.logger.Warn().Err(err).Msg("failed to register weather cache metrics")
		}
	}

	return s
}

// FetchWeather returns the resolved sample for c at the hour nearest target.
//
// A fresh cached sample is returned without any upstream call. Otherwise the
// atmospheric and marine series are loaded concurrently (each from its own raw
// cache when fresh). A marine failure is logged and the sample carries zero
// waves; an atmospheric failure is returned.
func (s *Service) FetchWeather(ctx context.Context, c geo.Coordinate, target time.Time) (*Sample, error) {
	if err := validate(c); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "weather.FetchWeather",
		trace.WithAttributes(attribute.String("coordinate", c.String())))
	defer span.End()

	key := cache.HourKey(c, s.sampleGrid, target)
	sample, err := s.samples.GetOrLoad(ctx, key, func(ctx context.Context) (*Sample, error) {
		return s.load(ctx, c, target)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return sample.clone(), nil
}

// FetchWindOnly returns a sample without marine data or fetch adjustment.
// A cached full sample for the same key is preferred when present.
func (s *Service) FetchWindOnly(ctx context.Context, c geo.Coordinate, t time.Time) (*Sample, error) {
	if err := validate(c); err != nil {
		return nil, err
	}

	key := cache.HourKey(c, s.sampleGrid, t)
	if full, ok := s.samples.Get(key); ok {
		return full.clone(), nil
	}

	sample, err := s.windOnly.GetOrLoad(ctx, key, func(ctx context.Context) (*Sample, error) {
		atm, err := s.loadAtmospheric(ctx, c)
		if err != nil {
			return nil, err
		}
		out, err := resolveAtmospheric(atm, t)
		if err != nil {
			return nil, err
		}
		out.WindOnly = true
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return sample.clone(), nil
}

func (s *Service) load(ctx context.Context, c geo.Coordinate, target time.Time) (*Sample, error) {
	var (
		atm *HourlySeries
		sea *MarineSeries
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		atm, err = s.loadAtmospheric(gctx, c)
		return err
	})
	if s.marine != nil {
		g.Go(func() error {
			var err error
			sea, err = s.loadMarine(gctx, c)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("coordinate", c.String()).
					Msg("marine forecast unavailable, assuming calm sea")
				sea = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sample, err := resolveAtmospheric(atm, target)
	if err != nil {
		return nil, err
	}
	s.applyMarine(sample, c, sea, target)

	s.logger.Debug().
		Str("coordinate", c.String()).
		Time("target", target).
		Float64("wave_height", sample.WaveHeight).
		Float64("fetch_km", sample.FetchDistanceKm).
		Msg("resolved weather sample")

	return sample, nil
}

func (s *Service) loadAtmospheric(ctx context.Context, c geo.Coordinate) (*HourlySeries, error) {
	return s.rawAtm.GetOrLoad(ctx, cache.GridKey(c, s.rawGrid), func(ctx context.Context) (*HourlySeries, error) {
		start := time.Now()
		series, err := s.atmospheric.FetchAtmospheric(ctx, c)
		s.metrics.recordUpstream(ctx, s.atmospheric.Name(), "atmospheric", start, err)
		if err != nil {
			s.logger.Error().Err(err).
				Str("provider", s.atmospheric.Name()).
				Str("coordinate", c.String()).
				Msg("failed to fetch atmospheric forecast")
			return nil, err
		}
		if len(series.Times) == 0 {
			return nil, &ProviderError{Provider: s.atmospheric.Name(), Kind: KindDecoding, Err: fmt.Errorf("empty hourly series")}
		}
		return series, nil
	})
}

func (s *Service) loadMarine(ctx context.Context, c geo.Coordinate) (*MarineSeries, error) {
	return s.rawSea.GetOrLoad(ctx, cache.GridKey(c, s.rawGrid), func(ctx context.Context) (*MarineSeries, error) {
		start := time.Now()
		series, err := s.marine.FetchMarine(ctx, c)
		s.metrics.recordUpstream(ctx, s.marine.Name(), "marine", start, err)
		return series, err
	})
}

func resolveAtmospheric(atm *HourlySeries, target time.Time) (*Sample, error) {
	i := NearestIndex(atm.Times, target)
	if i < 0 {
		return nil, fmt.Errorf("%w: empty hourly series", ErrDecoding)
	}

	sample := &Sample{Time: atm.Times[i]}
	if v, ok := valueAt(atm.WindSpeed, i); ok {
		sample.WindSpeed = &v
	}
	sample.WindDirection, _ = valueAt(atm.WindDirection, i)
	sample.WindGusts, _ = valueAt(atm.WindGusts, i)
	sample.Temperature, _ = valueAt(atm.Temperature, i)
	return sample, nil
}

func (s *Service) applyMarine(sample *Sample, c geo.Coordinate, sea *MarineSeries, target time.Time) {
	if sea == nil {
		return
	}
	j := NearestIndex(sea.Times, target)
	if j < 0 {
		return
	}

	sample.Marine = true
	total, _ := valueAt(sea.WaveHeight, j)
	sample.WaveDirection, _ = valueAt(sea.WaveDirection, j)
	sample.WavePeriod, _ = valueAt(sea.WavePeriod, j)

	if sample.WindKmh() < MinFetchWindKmh {
		sample.WaveHeight = total
		return
	}

	fetchKm := s.fetch.CalculateFetch(c, geo.Reciprocal(sample.WindDirection))
	sample.FetchDistanceKm = fetchKm

	swell, hasSwell := valueAt(sea.SwellWaveHeight, j)
	windWave, hasWindWave := valueAt(sea.WindWaveHeight, j)
	if hasSwell && hasWindWave {
		sample.WaveHeight = CombineWaves(swell, coastal.AdjustWaveHeight(windWave, fetchKm))
		return
	}
	sample.WaveHeight = coastal.AdjustWaveHeight(total, fetchKm)
}

// InvalidateCache clears every cache tier.
func (s *Service) InvalidateCache() {
	s.samples.Purge()
	s.windOnly.Purge()
	s.rawAtm.Purge()
	s.rawSea.Purge()
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Samples     cache.Stats
	WindOnly    cache.Stats
	Atmospheric cache.Stats
	Marine      cache.Stats
	Provider    string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	return CacheStats{
		Samples:     s.samples.Stats(),
		WindOnly:    s.windOnly.Stats(),
		Atmospheric: s.rawAtm.Stats(),
		Marine:      s.rawSea.Stats(),
		Provider:    s.atmospheric.Name(),
	}
}

func (s *Service) cacheStats() []cache.Stats {
	st := s.CacheStats()
	return []cache.Stats{st.Samples, st.WindOnly, st.Atmospheric, st.Marine}
}

func validate(c geo.Coordinate) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCoordinates, c)
	}
	return nil
}
