// Package notify delivers waypoint arrival and anchor drag events.
//
// Delivery (push, sound, banner) happens outside this service. A Sink only
// has to accept the event; implementations must not block the position
// stream for long.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/geo"
)

// Event kinds.
const (
	KindArrival   = "waypoint_arrival"
	KindDragAlarm = "anchor_drag"
)

// Arrival is emitted once per waypoint when the vessel comes within range.
type Arrival struct {
	WaypointID string         `json:"waypointId"`
	Name       string         `json:"name"`
	DistanceM  float64        `json:"distanceM"`
	Position   geo.Coordinate `json:"position"`
	Final      bool           `json:"final"`
	At         time.Time      `json:"at"`
}

// DragAlarm is emitted when an anchored vessel leaves its swing circle.
type DragAlarm struct {
	Center   geo.Coordinate `json:"center"`
	Position geo.Coordinate `json:"position"`
	DriftM   float64        `json:"driftM"`
	RadiusM  float64        `json:"radiusM"`
	At       time.Time      `json:"at"`
}

// Sink accepts notification events.
type Sink interface {
	SendArrival(ctx context.Context, a Arrival) error
	SendDragAlarm(ctx context.Context, d DragAlarm) error
}

// LogSink writes events to a logger.
type LogSink struct {
	Logger zerolog.Logger
}

// SendArrival logs the arrival.
func (s LogSink) SendArrival(_ context.Context, a Arrival) error {
	s.Logger.Info().
		Str("waypoint_id", a.WaypointID).
		Str("name", a.Name).
		Float64("distance_m", a.DistanceM).
		Bool("final", a.Final).
		Msg("waypoint reached")
	return nil
}

// SendDragAlarm logs the alarm.
func (s LogSink) SendDragAlarm(_ context.Context, d DragAlarm) error {
	s.Logger.Warn().
		Str("center", d.Center.String()).
		Str("position", d.Position.String()).
		Float64("drift_m", d.DriftM).
		Float64("radius_m", d.RadiusM).
		Msg("anchor drag alarm")
	return nil
}

// Event is a tagged notification for channel consumers.
type Event struct {
	Kind      string
	Arrival   *Arrival
	DragAlarm *DragAlarm
}

// ErrDropped is returned when a ChannelSink buffer is full.
var ErrDropped = errors.New("notification dropped: buffer full")

// ChannelSink publishes events on a buffered channel without blocking.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink creates a sink with the given buffer size (default: 16).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

// Events returns the receive side of the channel.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// SendArrival enqueues the arrival.
func (s *ChannelSink) SendArrival(_ context.Context, a Arrival) error {
	return s.offer(Event{Kind: KindArrival, Arrival: &a})
}

// SendDragAlarm enqueues the alarm.
func (s *ChannelSink) SendDragAlarm(_ context.Context, d DragAlarm) error {
	return s.offer(Event{Kind: KindDragAlarm, DragAlarm: &d})
}

func (s *ChannelSink) offer(e Event) error {
	select {
	case s.events <- e:
		return nil
	default:
		return ErrDropped
	}
}

// MultiSink fans events out to every sink. All sinks are tried; the errors
// are joined.
type MultiSink []Sink

// SendArrival forwards to every sink.
func (m MultiSink) SendArrival(ctx context.Context, a Arrival) error {
	var errs []error
	for _, s := range m {
		if err := s.SendArrival(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendDragAlarm forwards to every sink.
func (m MultiSink) SendDragAlarm(ctx context.Context, d DragAlarm) error {
	var errs []error
	for _, s := range m {
		if err := s.SendDragAlarm(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) SendArrival(context.Context, Arrival) error     { return nil }
func (Nop) SendDragAlarm(context.Context, DragAlarm) error { return nil }
