package anchorage

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/risk"
	"github.com/denizrota/denizrota/internal/weather"
)

// WindSource provides wind for the search area.
type WindSource interface {
	FetchWindOnly(ctx context.Context, c geo.Coordinate, t time.Time) (*weather.Sample, error)
}

// Ranked is a cove graded against the current wind.
type Ranked struct {
	Cove       Cove         `json:"cove"`
	DistanceKm float64      `json:"distanceKm"`
	Shelter    risk.Shelter `json:"shelter"`
}

// Ranking is the result of Service.Rank.
type Ranking struct {
	Center        geo.Coordinate `json:"center"`
	Time          time.Time      `json:"time"`
	WindSpeed     float64        `json:"windSpeed"`
	WindDirection float64        `json:"windDirection"`
	Coves         []Ranked       `json:"coves"`
}

// ServiceConfig holds configuration for the anchorage service.
type ServiceConfig struct {
	Catalog Catalog
	Wind    WindSource
	Logger  zerolog.Logger
}

// Service ranks coves around a point.
type Service struct {
	catalog Catalog
	wind    WindSource
	logger  zerolog.Logger
}

// NewService creates an anchorage service. A nil catalog uses the bundled
// static list.
func NewService(cfg ServiceConfig) *Service {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = NewStaticCatalog(nil)
	}
	return &Service{
		catalog: catalog,
		wind:    cfg.Wind,
		logger:  cfg.Logger,
	}
}

// Rank grades every cove within radiusKm of center against the wind at the
// area center at time t, best shelter first and nearest first within a
// shelter band.
func (s *Service) Rank(ctx context.Context, center geo.Coordinate, radiusKm float64, t time.Time) (*Ranking, error) {
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrInvalidCoordinates, err)
	}
	if radiusKm == 0 {
		radiusKm = DefaultRadiusKm
	}
	if math.IsNaN(radiusKm) || radiusKm < 0 || radiusKm > MaxRadiusKm {
		return nil, ErrInvalidRadius
	}

	candidates, err := s.catalog.Nearby(ctx, center, radiusKm)
	if err != nil {
		return nil, err
	}

	ranking := &Ranking{Center: center, Time: t, Coves: []Ranked{}}
	if len(candidates) == 0 {
		return ranking, nil
	}

	sample, err := s.wind.FetchWindOnly(ctx, center, t)
	if err != nil {
		return nil, fmt.Errorf("fetch wind: %w", err)
	}
	if sample.WindSpeed == nil {
		return nil, ErrWindUnavailable
	}
	windKmh := *sample.WindSpeed

	ranking.WindSpeed = windKmh
	ranking.WindDirection = sample.WindDirection

	for _, c := range candidates {
		ranking.Coves = append(ranking.Coves, Ranked{
			Cove:       c.Cove,
			DistanceKm: c.DistanceKm,
			Shelter:    risk.ClassifyShelter(c.Cove.MouthDirection, sample.WindDirection, windKmh),
		})
	}

	slices.SortStableFunc(ranking.Coves, func(a, b Ranked) int {
		if d := a.Shelter.Rank() - b.Shelter.Rank(); d != 0 {
			return d
		}
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})

	s.logger.Debug().
		Str("center", center.String()).
		Float64("radius_km", radiusKm).
		Int("coves", len(ranking.Coves)).
		Float64("wind_kmh", windKmh).
		Msg("ranked anchorages")

	return ranking, nil
}
