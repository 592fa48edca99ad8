// Package anchor implements the anchor drag alarm.
//
// The alarm is a closed set of states (Idle, Drafting, Active) moved by pure
// transition functions. Detector wraps the current state for concurrent use
// and performs the side effects a transition asks for.
package anchor

import (
	"errors"
	"fmt"
	"math"

	"github.com/denizrota/denizrota/internal/geo"
)

// Radius limits in meters.
const (
	MinRadiusM     = 10.0
	MaxRadiusM     = 500.0
	DefaultRadiusM = 50.0

	// TriggerFixes is how many consecutive fixes outside the circle fire the alarm.
	TriggerFixes = 3
)

var (
	// ErrNotReady is returned for a transition that is illegal in the current state.
	ErrNotReady = errors.New("anchor alarm not ready")

	// ErrInvalidCenter is returned for an out-of-range center coordinate.
	ErrInvalidCenter = errors.New("invalid anchor center")
)

// State is one of Idle, Drafting or Active.
type State interface {
	Mode() string
	sealed()
}

// Idle means no alarm is set.
type Idle struct{}

// Drafting is the alarm being positioned; nothing is monitored yet.
type Drafting struct {
	Center  geo.Coordinate
	RadiusM float64
}

// Active is an armed alarm.
type Active struct {
	Center             geo.Coordinate
	RadiusM            float64
	ConsecutiveOutside int
	Triggered          bool
}

func (Idle) Mode() string     { return "idle" }
func (Drafting) Mode() string { return "drafting" }
func (Active) Mode() string   { return "active" }

func (Idle) sealed()     {}
func (Drafting) sealed() {}
func (Active) sealed()   {}

// Effect is what the caller must do after a transition.
type Effect struct {
	// PersistRadiusM is the radius to remember for the next session; 0 means none.
	PersistRadiusM float64

	// Trigger fires the drag alarm.
	Trigger bool

	// DistanceM is the distance from the center for CheckLocation.
	DistanceM float64
}

// ClampRadius limits r to [MinRadiusM, MaxRadiusM]. NaN becomes the default.
func ClampRadius(r float64) float64 {
	switch {
	case math.IsNaN(r):
		return DefaultRadiusM
	case r < MinRadiusM:
		return MinRadiusM
	case r > MaxRadiusM:
		return MaxRadiusM
	default:
		return r
	}
}

func notReady(op string, s State) error {
	return fmt.Errorf("%w: %s while %s", ErrNotReady, op, s.Mode())
}

// StartDrafting begins placing an alarm at center from Idle or Active,
// discarding any drift and trigger state.
func StartDrafting(s State, center geo.Coordinate, radiusM float64) (State, error) {
	if err := center.Validate(); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidCenter, err)
	}
	switch s.(type) {
	case Idle, Active:
		return Drafting{Center: center, RadiusM: ClampRadius(radiusM)}, nil
	default:
		return s, notReady("start drafting", s)
	}
}

// UpdateCenter moves the draft center.
func UpdateCenter(s State, center geo.Coordinate) (State, error) {
	d, ok := s.(Drafting)
	if !ok {
		return s, notReady("update center", s)
	}
	if err := center.Validate(); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidCenter, err)
	}
	d.Center = center
	return d, nil
}

// UpdateRadius changes the draft radius, clamped to the allowed range.
func UpdateRadius(s State, radiusM float64) (State, error) {
	d, ok := s.(Drafting)
	if !ok {
		return s, notReady("update radius", s)
	}
	d.RadiusM = ClampRadius(radiusM)
	return d, nil
}

// Activate arms a draft. The radius should be persisted for the next session.
func Activate(s State) (State, Effect, error) {
	d, ok := s.(Drafting)
	if !ok {
		return s, Effect{}, notReady("activate", s)
	}
	return Active{Center: d.Center, RadiusM: d.RadiusM}, Effect{PersistRadiusM: d.RadiusM}, nil
}

// Deactivate disarms an active alarm.
func Deactivate(s State) (State, error) {
	if _, ok := s.(Active); !ok {
		return s, notReady("deactivate", s)
	}
	return Idle{}, nil
}

// CancelDrafting abandons a draft.
func CancelDrafting(s State) (State, error) {
	if _, ok := s.(Drafting); !ok {
		return s, notReady("cancel drafting", s)
	}
	return Idle{}, nil
}

// CheckLocation feeds one accepted fix to an active alarm; any other state is
// returned unchanged.
//
// A fix outside the radius extends the outside streak and the alarm fires
// once when the streak reaches TriggerFixes. A fix inside resets the streak
// and re-arms a fired alarm without moving the center.
func CheckLocation(s State, position geo.Coordinate) (State, Effect) {
	a, ok := s.(Active)
	if !ok {
		return s, Effect{}
	}

	distance := geo.Distance(position, a.Center)
	eff := Effect{DistanceM: distance}

	if distance > a.RadiusM {
		a.ConsecutiveOutside++
		if a.ConsecutiveOutside >= TriggerFixes && !a.Triggered {
			a.Triggered = true
			eff.Trigger = true
		}
		return a, eff
	}

	a.ConsecutiveOutside = 0
	a.Triggered = false
	return a, eff
}
