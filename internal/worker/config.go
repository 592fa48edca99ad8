// Package worker runs background cache warm-up jobs for DenizRota.
package worker

import (
	"slices"
	"time"

	"github.com/denizrota/denizrota/internal/anchorage"
	"github.com/denizrota/denizrota/internal/geo"
)

// RefreshTarget is a cruising area whose forecasts are kept warm.
type RefreshTarget struct {
	// Name is the region name.
	Name string

	// Points are the anchorages to refresh.
	Points []geo.Coordinate

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// RefreshConfig holds configuration for the weather refresh job.
type RefreshConfig struct {
	// Targets are the regions to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh workers.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each point.
	// Default: 30 seconds
	Timeout time.Duration

	// HorizonHours are the forecast offsets from the current hour to warm.
	// Default: 0, 3, 6
	HorizonHours []int
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:      DefaultRefreshTargets(),
		Concurrency:  3,
		Timeout:      30 * time.Second,
		HorizonHours: []int{0, 3, 6},
	}
}

// regionPriority ranks the busiest cruising grounds first.
var regionPriority = map[string]int{
	"Datça":    1,
	"Gökova":   1,
	"Bodrum":   1,
	"Marmaris": 2,
	"Hisarönü": 2,
	"Göcek":    2,
	"Fethiye":  3,
	"Kaş":      3,
}

// DefaultRefreshTargets groups the bundled anchorages by region.
func DefaultRefreshTargets() []RefreshTarget {
	byRegion := make(map[string]*RefreshTarget)
	var order []string

	for _, cove := range anchorage.BundledCoves() {
		t, ok := byRegion[cove.Region]
		if !ok {
			priority := regionPriority[cove.Region]
			if priority == 0 {
				priority = 3
			}
			t = &RefreshTarget{Name: cove.Region, Priority: priority}
			byRegion[cove.Region] = t
			order = append(order, cove.Region)
		}
		t.Points = append(t.Points, cove.Coordinate)
	}

	targets := make([]RefreshTarget, 0, len(order))
	for _, name := range order {
		targets = append(targets, *byRegion[name])
	}
	return targets
}

// AllPoints returns all points from all targets, ordered by priority.
func (c RefreshConfig) AllPoints() []geo.Coordinate {
	targets := slices.Clone(c.Targets)
	slices.SortStableFunc(targets, func(a, b RefreshTarget) int {
		return a.Priority - b.Priority
	})

	var points []geo.Coordinate
	for _, target := range targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c RefreshConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
