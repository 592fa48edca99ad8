// Package trip stores finished trips.
package trip

import (
	"errors"
	"time"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/tracker"
)

// Repository errors.
var (
	ErrTripNotFound = errors.New("trip not found")
)

// Trip is a finished passage.
type Trip struct {
	ID          string           `json:"id"`
	StartedAt   time.Time        `json:"startedAt"`
	EndedAt     time.Time        `json:"endedAt"`
	DistanceKm  float64          `json:"distanceKm"`
	MaxSpeedKmh float64          `json:"maxSpeedKmh"`
	AvgSpeedKmh float64          `json:"avgSpeedKmh"`
	Duration    time.Duration    `json:"durationNs"`
	Track       []geo.Coordinate `json:"track,omitempty"`
}

// FromSummary builds a trip record from a tracker summary.
func FromSummary(id string, s *tracker.Summary) *Trip {
	return &Trip{
		ID:          id,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		DistanceKm:  s.DistanceKm,
		MaxSpeedKmh: s.MaxSpeedKmh,
		AvgSpeedKmh: s.AvgSpeedKmh,
		Duration:    s.Duration,
		Track:       s.Track,
	}
}
