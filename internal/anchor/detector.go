package anchor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/notify"
)

// RadiusStore remembers the last radius used across sessions.
type RadiusStore interface {
	LastAnchorRadius(ctx context.Context) (float64, error)
	SaveAnchorRadius(ctx context.Context, radiusM float64) error
}

// DetectorConfig holds configuration for a Detector.
type DetectorConfig struct {
	// Store persists the radius on activation (optional).
	Store RadiusStore

	// Sink receives drag alarms (default: notify.Nop).
	Sink notify.Sink

	// Logger for detector operations.
	Logger zerolog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Detector holds the alarm state of one vessel. It is safe for concurrent use.
type Detector struct {
	store  RadiusStore
	sink   notify.Sink
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
}

// NewDetector creates an idle detector.
func NewDetector(cfg DetectorConfig) *Detector {
	sink := cfg.Sink
	if sink == nil {
		sink = notify.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Detector{
		store:  cfg.Store,
		sink:   sink,
		logger: cfg.Logger,
		now:    now,
		state:  Idle{},
	}
}

// State returns the current state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// StartDrafting begins a draft at center using the last persisted radius.
func (d *Detector) StartDrafting(ctx context.Context, center geo.Coordinate) (State, error) {
	radius := d.lastRadius(ctx)
	return d.apply(func(s State) (State, error) {
		return StartDrafting(s, center, radius)
	})
}

// UpdateCenter moves the draft center.
func (d *Detector) UpdateCenter(center geo.Coordinate) (State, error) {
	return d.apply(func(s State) (State, error) {
		return UpdateCenter(s, center)
	})
}

// UpdateRadius changes the draft radius.
func (d *Detector) UpdateRadius(radiusM float64) (State, error) {
	return d.apply(func(s State) (State, error) {
		return UpdateRadius(s, radiusM)
	})
}

// Activate arms the draft and persists its radius.
func (d *Detector) Activate(ctx context.Context) (State, error) {
	d.mu.Lock()
	next, eff, err := Activate(d.state)
	if err != nil {
		d.mu.Unlock()
		return next, err
	}
	d.state = next
	d.mu.Unlock()

	if eff.PersistRadiusM > 0 && d.store != nil {
		if err := d.store.SaveAnchorRadius(ctx, eff.PersistRadiusM); err != nil {
			d.logger.Warn().Err(err).Float64("radius_m", eff.PersistRadiusM).Msg("failed to persist anchor radius")
		}
	}

	a := next.(Active)
	d.logger.Info().
		Str("center", a.Center.String()).
		Float64("radius_m", a.RadiusM).
		Msg("anchor alarm armed")
	return next, nil
}

// Deactivate disarms the alarm.
func (d *Detector) Deactivate() (State, error) {
	return d.apply(Deactivate)
}

// CancelDrafting abandons the draft.
func (d *Detector) CancelDrafting() (State, error) {
	return d.apply(CancelDrafting)
}

// CheckLocation feeds an accepted fix to the alarm and reports whether it
// fired. The drag alarm is delivered outside the lock.
func (d *Detector) CheckLocation(ctx context.Context, position geo.Coordinate) bool {
	d.mu.Lock()
	next, eff := CheckLocation(d.state, position)
	d.state = next
	d.mu.Unlock()

	if !eff.Trigger {
		return false
	}

	a := next.(Active)
	alarm := notify.DragAlarm{
		Center:   a.Center,
		Position: position,
		DriftM:   eff.DistanceM,
		RadiusM:  a.RadiusM,
		At:       d.now(),
	}
	if err := d.sink.SendDragAlarm(ctx, alarm); err != nil {
		d.logger.Error().Err(err).Msg("failed to deliver drag alarm")
	}
	return true
}

func (d *Detector) apply(fn func(State) (State, error)) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, err := fn(d.state)
	if err != nil {
		return d.state, err
	}
	d.state = next
	return next, nil
}

func (d *Detector) lastRadius(ctx context.Context) float64 {
	if d.store == nil {
		return DefaultRadiusM
	}
	r, err := d.store.LastAnchorRadius(ctx)
	if err != nil || r == 0 {
		if err != nil {
			d.logger.Warn().Err(err).Msg("failed to load anchor radius, using default")
		}
		return DefaultRadiusM
	}
	return r
}

// Status is a flat view of a State for API responses.
type Status struct {
	Mode               string          `json:"mode"`
	Center             *geo.Coordinate `json:"center,omitempty"`
	RadiusM            float64         `json:"radiusM,omitempty"`
	ConsecutiveOutside int             `json:"consecutiveOutside"`
	Triggered          bool            `json:"triggered"`
}

// Describe flattens s.
func Describe(s State) Status {
	switch v := s.(type) {
	case Drafting:
		c := v.Center
		return Status{Mode: v.Mode(), Center: &c, RadiusM: v.RadiusM}
	case Active:
		c := v.Center
		return Status{
			Mode:               v.Mode(),
			Center:             &c,
			RadiusM:            v.RadiusM,
			ConsecutiveOutside: v.ConsecutiveOutside,
			Triggered:          v.Triggered,
		}
	default:
		return Status{Mode: s.Mode()}
	}
}
