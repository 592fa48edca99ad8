package route

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/risk"
	"github.com/denizrota/denizrota/internal/weather"
)

// WeatherSource provides point forecasts.
type WeatherSource interface {
	FetchWeather(ctx context.Context, c geo.Coordinate, t time.Time) (*weather.Sample, error)
}

// PlannerConfig holds configuration for the planner.
type PlannerConfig struct {
	Weather WeatherSource
	Logger  zerolog.Logger

	// Concurrency bounds parallel weather lookups (default: 4).
	Concurrency int
}

// Planner assesses routes.
type Planner struct {
	weather     WeatherSource
	logger      zerolog.Logger
	concurrency int
}

// NewPlanner creates a route planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Planner{
		weather:     cfg.Weather,
		logger:      cfg.Logger,
		concurrency: concurrency,
	}
}

// Assess computes the ETA at every waypoint from cumulative distance and the
// average speed, then looks up the forecast there at that time.
//
// A waypoint whose forecast cannot be fetched is rated unknown. Only
// cancellation of ctx fails the whole assessment.
func (p *Planner) Assess(ctx context.Context, r *Route, departure time.Time, params Params) (*Assessment, error) {
	if errs := validateAssess(r, params); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	a := &Assessment{
		RouteID:   r.ID,
		Departure: departure,
		Waypoints: make([]WaypointAssessment, len(r.Waypoints)),
	}

	var cumulativeKm float64
	for i, wp := range r.Waypoints {
		if i > 0 {
			cumulativeKm += geo.DistanceKm(r.Waypoints[i-1].Coordinate, wp.Coordinate)
		}
		a.Waypoints[i] = WaypointAssessment{
			Waypoint:            wp,
			DistanceFromStartKm: cumulativeKm,
			ETA:                 departure.Add(hours(cumulativeKm / params.AverageSpeedKmh)),
			Risk:                risk.LevelUnknown,
		}
	}

	durationHours := cumulativeKm / params.AverageSpeedKmh
	a.TotalDistanceKm = cumulativeKm
	a.DurationMinutes = durationHours * 60
	a.Arrival = departure.Add(hours(durationHours))
	a.FuelLitres = durationHours * params.FuelRateLph
	a.FuelCost = a.FuelLitres * params.FuelPrice

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range a.Waypoints {
		wa := &a.Waypoints[i]
		g.Go(func() error {
			sample, err := p.weather.FetchWeather(gctx, wa.Waypoint.Coordinate, wa.ETA)
			if err != nil {
				p.logger.Warn().
					Err(err).
					Str("waypoint_id", wa.Waypoint.ID).
					Time("eta", wa.ETA).
					Msg("waypoint forecast unavailable")
				wa.Error = err.Error()
				return nil
			}
			wa.Weather = sample
			wa.Risk = sample.Risk()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assess route: %w", err)
	}

	levels := make([]risk.Level, len(a.Waypoints))
	for i, wa := range a.Waypoints {
		levels[i] = wa.Risk
	}
	a.WorstRisk = risk.Worst(levels...)

	return a, nil
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func validateAssess(r *Route, params Params) []models.FieldError {
	var errs []models.FieldError

	if r == nil || len(r.Waypoints) == 0 {
		errs = append(errs, models.FieldError{Field: "waypoints", Message: "is required"})
	} else {
		errs = append(errs, validateWaypoints(r.Waypoints)...)
	}
	if !(params.AverageSpeedKmh > 0) || math.IsInf(params.AverageSpeedKmh, 0) {
		errs = append(errs, models.FieldError{Field: "averageSpeedKmh", Message: "must be greater than 0"})
	}
	if !(params.FuelRateLph >= 0) {
		errs = append(errs, models.FieldError{Field: "fuelRateLph", Message: "must not be negative"})
	}
	if !(params.FuelPrice >= 0) {
		errs = append(errs, models.FieldError{Field: "fuelPrice", Message: "must not be negative"})
	}

	return errs
}

func validateWaypoints(wps []Waypoint) []models.FieldError {
	var errs []models.FieldError

	if len(wps) > MaxWaypoints {
		errs = append(errs, models.FieldError{Field: "waypoints", Message: fmt.Sprintf("must contain at most %d entries", MaxWaypoints)})
	}
	for i, wp := range wps {
		if err := wp.Coordinate.Validate(); err != nil {
			errs = append(errs, models.FieldError{
				Field:   fmt.Sprintf("waypoints[%d].coordinate", i),
				Message: "must be a valid latitude/longitude",
			})
		}
	}
	return errs
}
