// Package tracker filters the live position stream and keeps trip and
// waypoint progress.
package tracker

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/notify"
)

// Filter and arrival thresholds in meters.
const (
	MaxAccuracyM   = 50.0
	MaxJumpM       = 1000.0
	ArrivalRadiusM = 100.0
)

// Tracker errors.
var (
	ErrNoActiveTrip = errors.New("no active trip")
	ErrTripActive   = errors.New("trip already active")
)

// Position is one raw fix from the device.
type Position struct {
	Coordinate          geo.Coordinate `json:"coordinate"`
	Timestamp           time.Time      `json:"timestamp"`
	SpeedKmh            float64        `json:"speedKmh"`
	HorizontalAccuracyM float64        `json:"horizontalAccuracyM"`
}

// Waypoint is a named target on the active route.
type Waypoint struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// Progress is a snapshot of waypoint progress.
type Progress struct {
	Waypoints    []Waypoint `json:"waypoints"`
	CurrentIndex int        `json:"currentIndex"`
	NotifiedIDs  []string   `json:"notifiedIds"`
	Arrived      bool       `json:"arrived"`
}

// TripStats is a snapshot of the running trip.
type TripStats struct {
	StartedAt   time.Time `json:"startedAt"`
	DistanceKm  float64   `json:"distanceKm"`
	MaxSpeedKmh float64   `json:"maxSpeedKmh"`
	Points      int       `json:"points"`
}

// Summary is a finished trip.
type Summary struct {
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
	DistanceKm  float64
	MaxSpeedKmh float64
	AvgSpeedKmh float64
	Track       []geo.Coordinate
}

type accumulator struct {
	startedAt   time.Time
	distanceKm  float64
	maxSpeedKmh float64
	last        *geo.Coordinate
	track       []geo.Coordinate
}

// Config holds configuration for a Tracker.
type Config struct {
	// Sink receives arrival events (default: notify.Nop).
	Sink   notify.Sink
	Logger zerolog.Logger
}

// Tracker is safe for concurrent use.
type Tracker struct {
	sink   notify.Sink
	logger zerolog.Logger

	mu           sync.Mutex
	lastAccepted *Position
	trip         *accumulator

	waypoints []Waypoint
	current   int
	notified  map[string]struct{}
	arrived   bool
}

// New creates a tracker with no trip and no route.
func New(cfg Config) *Tracker {
	sink := cfg.Sink
	if sink == nil {
		sink = notify.Nop{}
	}
	return &Tracker{
		sink:     sink,
		logger:   cfg.Logger,
		notified: make(map[string]struct{}),
	}
}

// AcceptFix filters p and, when accepted, updates the trip and waypoint
// progress. Rejected fixes leave all state untouched.
//
// A fix is rejected when its accuracy is negative or worse than MaxAccuracyM,
// or when it lies more than MaxJumpM from the previous accepted fix.
func (t *Tracker) AcceptFix(ctx context.Context, p Position) bool {
	if !validAccuracy(p.HorizontalAccuracyM) || p.Coordinate.Validate() != nil {
		return false
	}

	t.mu.Lock()
	if t.lastAccepted != nil && geo.Distance(t.lastAccepted.Coordinate, p.Coordinate) > MaxJumpM {
		prev := t.lastAccepted.Coordinate
		t.mu.Unlock()
		t.logger.Debug().
			Str("from", prev.String()).
			Str("to", p.Coordinate.String()).
			Msg("rejected position jump")
		return false
	}

	accepted := p
	t.lastAccepted = &accepted

	if t.trip != nil {
		t.trip.add(p)
	}

	arrival := t.checkArrival(p)
	t.mu.Unlock()

	if arrival != nil {
		if err := t.sink.SendArrival(ctx, *arrival); err != nil {
			t.logger.Error().Err(err).Str("waypoint_id", arrival.WaypointID).Msg("failed to deliver arrival")
		}
	}
	return true
}

func validAccuracy(a float64) bool {
	return !math.IsNaN(a) && a >= 0 && a <= MaxAccuracyM
}

// add extends the trip from its own last point; the first fix after
// StartTrip only sets the baseline, even if an earlier fix was accepted.
func (a *accumulator) add(p Position) {
	if a.last != nil {
		a.distanceKm += geo.DistanceKm(*a.last, p.Coordinate)
	}
	c := p.Coordinate
	a.last = &c
	a.track = append(a.track, c)
	if p.SpeedKmh > a.maxSpeedKmh {
		a.maxSpeedKmh = p.SpeedKmh
	}
}

// checkArrival must be called with t.mu held.
func (t *Tracker) checkArrival(p Position) *notify.Arrival {
	if t.arrived || t.current >= len(t.waypoints) {
		return nil
	}

	target := t.waypoints[t.current]
	distance := geo.Distance(p.Coordinate, target.Coordinate)
	if distance > ArrivalRadiusM {
		return nil
	}
	if _, seen := t.notified[target.ID]; seen {
		return nil
	}
	t.notified[target.ID] = struct{}{}

	final := t.current == len(t.waypoints)-1
	if final {
		t.arrived = true
	} else {
		t.current++
	}

	return &notify.Arrival{
		WaypointID: target.ID,
		Name:       target.Name,
		DistanceM:  distance,
		Position:   p.Coordinate,
		Final:      final,
		At:         p.Timestamp,
	}
}

// LastAccepted returns the most recent accepted fix.
func (t *Tracker) LastAccepted() (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastAccepted == nil {
		return Position{}, false
	}
	return *t.lastAccepted, true
}

// StartTrip starts accumulating distance and speed.
func (t *Tracker) StartTrip(now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.trip != nil {
		return ErrTripActive
	}
	t.trip = &accumulator{startedAt: now}
	return nil
}

// EndTrip finishes the running trip.
func (t *Tracker) EndTrip(now time.Time) (*Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.trip == nil {
		return nil, ErrNoActiveTrip
	}

	a := t.trip
	t.trip = nil

	duration := now.Sub(a.startedAt)
	var avg float64
	if hours := duration.Hours(); hours > 0 {
		avg = a.distanceKm / hours
	}

	return &Summary{
		StartedAt:   a.startedAt,
		EndedAt:     now,
		Duration:    duration,
		DistanceKm:  a.distanceKm,
		MaxSpeedKmh: a.maxSpeedKmh,
		AvgSpeedKmh: avg,
		Track:       a.track,
	}, nil
}

// Trip returns the running trip, if any.
func (t *Tracker) Trip() (TripStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.trip == nil {
		return TripStats{}, false
	}
	return TripStats{
		StartedAt:   t.trip.startedAt,
		DistanceKm:  t.trip.distanceKm,
		MaxSpeedKmh: t.trip.maxSpeedKmh,
		Points:      len(t.trip.track),
	}, true
}

// SetRoute replaces the route and resets waypoint progress.
func (t *Tracker) SetRoute(waypoints []Waypoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waypoints = append([]Waypoint(nil), waypoints...)
	t.current = 0
	t.notified = make(map[string]struct{})
	t.arrived = false
}

// ClearRoute drops the route.
func (t *Tracker) ClearRoute() {
	t.SetRoute(nil)
}

// Progress returns a snapshot of waypoint progress.
func (t *Tracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.notified))
	for _, wp := range t.waypoints {
		if _, ok := t.notified[wp.ID]; ok {
			ids = append(ids, wp.ID)
		}
	}
	return Progress{
		Waypoints:    append([]Waypoint(nil), t.waypoints...),
		CurrentIndex: t.current,
		NotifiedIDs:  ids,
		Arrived:      t.arrived,
	}
}
