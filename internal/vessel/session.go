// Package vessel ties the live position stream to trip tracking and the
// anchor watch.
package vessel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/anchor"
	"github.com/denizrota/denizrota/internal/notify"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/tracker"
	"github.com/denizrota/denizrota/internal/trip"
)

// ErrNoRoute is returned by FollowRoute for an empty route.
var ErrNoRoute = errors.New("route has no waypoints")

// SessionConfig holds configuration for a session.
type SessionConfig struct {
	// Sink receives arrivals and drag alarms (default: notify.Nop).
	Sink notify.Sink

	// RadiusStore remembers the anchor radius between sessions.
	RadiusStore anchor.RadiusStore

	// Trips stores finished trips. Optional.
	Trips *trip.Service

	Logger zerolog.Logger
	Now    func() time.Time
}

// Session is the live state for one vessel. It is safe for concurrent use;
// the tracker and detector guard their own state.
type Session struct {
	tracker  *tracker.Tracker
	detector *anchor.Detector
	trips    *trip.Service
	logger   zerolog.Logger
	now      func() time.Time
}

// IngestResult reports what happened to one fix.
type IngestResult struct {
	Accepted bool `json:"accepted"`
	Alarm    bool `json:"alarm"`
}

// NewSession creates a session with no trip, no route and the anchor idle.
func NewSession(cfg SessionConfig) *Session {
	sink := cfg.Sink
	if sink == nil {
		sink = notify.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Session{
		tracker: tracker.New(tracker.Config{Sink: sink, Logger: cfg.Logger}),
		detector: anchor.NewDetector(anchor.DetectorConfig{
			Store:  cfg.RadiusStore,
			Sink:   sink,
			Logger: cfg.Logger,
			Now:    now,
		}),
		trips:  cfg.Trips,
		logger: cfg.Logger,
		now:    now,
	}
}

// Tracker exposes the position tracker.
func (s *Session) Tracker() *tracker.Tracker { return s.tracker }

// Anchor exposes the anchor detector.
func (s *Session) Anchor() *anchor.Detector { return s.detector }

// Ingest runs one fix through the tracker filter. Accepted fixes always
// reach the anchor detector, whether or not a trip is running.
func (s *Session) Ingest(ctx context.Context, p tracker.Position) IngestResult {
	if !s.tracker.AcceptFix(ctx, p) {
		return IngestResult{}
	}
	return IngestResult{
		Accepted: true,
		Alarm:    s.detector.CheckLocation(ctx, p.Coordinate),
	}
}

// StartTrip starts a trip now.
func (s *Session) StartTrip() (time.Time, error) {
	now := s.now()
	if err := s.tracker.StartTrip(now); err != nil {
		return time.Time{}, err
	}
	s.logger.Info().Time("started_at", now).Msg("trip started")
	return now, nil
}

// StopTrip ends the running trip and records it when a trip store is set.
func (s *Session) StopTrip(ctx context.Context) (*trip.Trip, error) {
	summary, err := s.tracker.EndTrip(s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Float64("distance_km", summary.DistanceKm).
		Dur("duration", summary.Duration).
		Msg("trip ended")

	if s.trips == nil {
		return trip.FromSummary("", summary), nil
	}

	t, err := s.trips.Record(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("record trip: %w", err)
	}
	return t, nil
}

// FollowRoute starts waypoint tracking along r.
func (s *Session) FollowRoute(r *route.Route) error {
	if r == nil || len(r.Waypoints) == 0 {
		return ErrNoRoute
	}
	s.tracker.SetRoute(r.TrackerWaypoints())
	return nil
}

// StopFollowing clears waypoint tracking.
func (s *Session) StopFollowing() {
	s.tracker.ClearRoute()
}
