package route_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/risk"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/weather"
)

type fakeWeather struct {
	mu       sync.Mutex
	requests map[geo.Coordinate]time.Time
	wind     map[geo.Coordinate]float64
	fail     map[geo.Coordinate]bool
	delay    time.Duration

	inFlight    int
	maxInFlight int
}

func newFakeWeather() *fakeWeather {
	return &fakeWeather{
		requests: make(map[geo.Coordinate]time.Time),
		wind:     make(map[geo.Coordinate]float64),
		fail:     make(map[geo.Coordinate]bool),
	}
}

func (f *fakeWeather) FetchWeather(ctx context.Context, c geo.Coordinate, t time.Time) (*weather.Sample, error) {
	f.mu.Lock()
	f.requests[c] = t
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[c] {
		return nil, weather.ErrUpstream
	}
	wind := f.wind[c]
	return &weather.Sample{Time: t, WindSpeed: &wind, WaveHeight: 0.2, Marine: true}, nil
}

var (
	departure = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	params    = route.Params{AverageSpeedKmh: 15, FuelRateLph: 20, FuelPrice: 45}

	datca       = geo.Coordinate{Lat: 36.7230, Lon: 27.6870}
	palamutbuku = geo.Coordinate{Lat: 36.6690, Lon: 27.5030}
	knidos      = geo.Coordinate{Lat: 36.6860, Lon: 27.3780}
)

func testRoute() *route.Route {
	return &route.Route{
		ID:   "rte_test",
		Name: "Datça - Knidos",
		Waypoints: []route.Waypoint{
			{ID: "wp_a", Name: "Datça", Coordinate: datca, Order: 0},
			{ID: "wp_b", Name: "Palamutbükü", Coordinate: palamutbuku, Order: 1},
			{ID: "wp_c", Name: "Knidos", Coordinate: knidos, Order: 2},
		},
	}
}

func newPlanner(w route.WeatherSource, concurrency int) *route.Planner {
	return route.NewPlanner(route.PlannerConfig{Weather: w, Logger: zerolog.Nop(), Concurrency: concurrency})
}

func TestPlanner_Assess(t *testing.T) {
	w := newFakeWeather()
	w.wind[datca] = 8
	w.wind[palamutbuku] = 12
	w.wind[knidos] = 22

	a, err := newPlanner(w, 0).Assess(context.Background(), testRoute(), departure, params)
	require.NoError(t, err)

	leg1 := geo.DistanceKm(datca, palamutbuku)
	leg2 := geo.DistanceKm(palamutbuku, knidos)
	total := leg1 + leg2
	hours := total / 15

	assert.InDelta(t, total, a.TotalDistanceKm, 1e-9)
	assert.InDelta(t, hours*60, a.DurationMinutes, 1e-6)
	assert.InDelta(t, hours*20, a.FuelLitres, 1e-6)
	assert.InDelta(t, hours*20*45, a.FuelCost, 1e-6)
	assert.WithinDuration(t, departure.Add(time.Duration(hours*float64(time.Hour))), a.Arrival, time.Millisecond)

	require.Len(t, a.Waypoints, 3)
	assert.Equal(t, departure, a.Waypoints[0].ETA)
	assert.Equal(t, 0.0, a.Waypoints[0].DistanceFromStartKm)
	assert.WithinDuration(t, departure.Add(time.Duration(leg1/15*float64(time.Hour))), a.Waypoints[1].ETA, time.Millisecond)
	assert.InDelta(t, leg1, a.Waypoints[1].DistanceFromStartKm, 1e-9)

	// Each forecast is taken at that waypoint's ETA.
	for _, wa := range a.Waypoints {
		assert.Equal(t, wa.ETA, w.requests[wa.Waypoint.Coordinate])
	}

	assert.Equal(t, risk.LevelGreen, a.Waypoints[0].Risk)
	assert.Equal(t, risk.LevelGreen, a.Waypoints[1].Risk)
	assert.Equal(t, risk.LevelYellow, a.Waypoints[2].Risk)
	assert.Equal(t, risk.LevelYellow, a.WorstRisk)
}

func TestPlanner_FailedWaypointIsUnknown(t *testing.T) {
	w := newFakeWeather()
	w.fail[palamutbuku] = true

	a, err := newPlanner(w, 2).Assess(context.Background(), testRoute(), departure, params)
	require.NoError(t, err)

	assert.Equal(t, risk.LevelUnknown, a.Waypoints[1].Risk)
	assert.Nil(t, a.Waypoints[1].Weather)
	assert.NotEmpty(t, a.Waypoints[1].Error)
	assert.Equal(t, risk.LevelUnknown, a.WorstRisk, "an unassessed waypoint must not leave the route green")

	// A red waypoint still dominates.
	w.wind[knidos] = 35
	a, err = newPlanner(w, 2).Assess(context.Background(), testRoute(), departure, params)
	require.NoError(t, err)
	assert.Equal(t, risk.LevelRed, a.WorstRisk)
}

func TestPlanner_BoundedConcurrency(t *testing.T) {
	w := newFakeWeather()
	w.delay = 20 * time.Millisecond

	rt := &route.Route{ID: "rte_long"}
	for i := 0; i < 12; i++ {
		rt.Waypoints = append(rt.Waypoints, route.Waypoint{
			ID:         "wp",
			Coordinate: geo.Offset(datca, 270, float64(i)*2),
			Order:      i,
		})
	}

	_, err := newPlanner(w, 3).Assess(context.Background(), rt, departure, params)
	require.NoError(t, err)
	assert.LessOrEqual(t, w.maxInFlight, 3)
	assert.Len(t, w.requests, 12)
}

func TestPlanner_Cancelled(t *testing.T) {
	w := newFakeWeather()
	w.delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newPlanner(w, 0).Assess(ctx, testRoute(), departure, params)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPlanner_Validation(t *testing.T) {
	tests := []struct {
		name      string
		route     *route.Route
		params    route.Params
		wantField string
	}{
		{"no waypoints", &route.Route{}, params, "waypoints"},
		{"zero speed", testRoute(), route.Params{AverageSpeedKmh: 0}, "averageSpeedKmh"},
		{"negative fuel", testRoute(), route.Params{AverageSpeedKmh: 10, FuelRateLph: -1}, "fuelRateLph"},
		{
			"bad coordinate",
			&route.Route{Waypoints: []route.Waypoint{{Coordinate: geo.Coordinate{Lat: 100}}}},
			params,
			"waypoints[0].coordinate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newPlanner(newFakeWeather(), 0).Assess(context.Background(), tt.route, departure, tt.params)

			var verr *route.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Errors[0].Field)
		})
	}
}
