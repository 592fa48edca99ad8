// Package coastal estimates open-water fetch and the wave dampening it implies.
//
// Land detection is a coarse proximity heuristic over a bundled regional
// dataset: named sea-region boxes, land boxes carved out of them, and a
// sparse list of coastline points. It does not attempt polygon accuracy.
package coastal

import (
	"github.com/denizrota/denizrota/internal/geo"
)

const (
	// StepKm is the march increment.
	StepKm = 0.5

	// MaxFetchKm is returned when no land is found; it stands for open ocean.
	MaxFetchKm = 100.0

	// DefaultLandThresholdKm is how close to a coastline point counts as land.
	DefaultLandThresholdKm = 1.5
)

// Region is a named bounding box.
type Region struct {
	Name string
	Box  geo.BoundingBox
}

// Model holds the land/sea dataset used by CalculateFetch.
type Model struct {
	SeaRegions      []Region
	LandExclusions  []Region
	Coastline       []geo.Coordinate
	LandThresholdKm float64
}

// IsLand reports whether c is treated as land.
//
// A point inside a land exclusion box is land. A point inside a sea region is
// land only when it lies within LandThresholdKm of a coastline point. Points
// outside every sea region are outside the dataset and count as water.
func (m *Model) IsLand(c geo.Coordinate) bool {
	for _, r := range m.LandExclusions {
		if r.Box.Contains(c) {
			return true
		}
	}

	inSea := false
	for _, r := range m.SeaRegions {
		if r.Box.Contains(c) {
			inSea = true
			break
		}
	}
	if !inSea {
		return false
	}

	threshold := m.LandThresholdKm
	if threshold == 0 {
		threshold = DefaultLandThresholdKm
	}
	thresholdM := threshold * 1000

	for _, p := range m.Coastline {
		if geo.Distance(c, p) < thresholdM {
			return true
		}
	}
	return false
}

// CalculateFetch marches from point along bearingDeg in StepKm increments and
// returns the distance covered when the first step lands on land, or
// MaxFetchKm when none does. The starting point itself is not tested.
func (m *Model) CalculateFetch(point geo.Coordinate, bearingDeg float64) float64 {
	steps := int(MaxFetchKm / StepKm)
	for i := 1; i <= steps; i++ {
		distance := float64(i) * StepKm
		if m.IsLand(geo.Offset(point, bearingDeg, distance)) {
			return distance
		}
	}
	return MaxFetchKm
}

// RegionAt returns the name of the first sea region containing c.
func (m *Model) RegionAt(c geo.Coordinate) (string, bool) {
	for _, r := range m.SeaRegions {
		if r.Box.Contains(c) {
			return r.Name, true
		}
	}
	return "", false
}

var defaultModel = &Model{
	SeaRegions:      seaRegions,
	LandExclusions:  landExclusions,
	Coastline:       coastline,
	LandThresholdKm: DefaultLandThresholdKm,
}

// DefaultModel returns the bundled south-west Turkey coast model.
func DefaultModel() *Model {
	return defaultModel
}

// CalculateFetch runs the default model.
func CalculateFetch(point geo.Coordinate, bearingDeg float64) float64 {
	return defaultModel.CalculateFetch(point, bearingDeg)
}

// FetchFactor returns the wave dampening factor for a fetch distance.
// It is non-decreasing in fetchKm and reaches 1 for open water.
func FetchFactor(fetchKm float64) float64 {
	switch {
	case fetchKm < 3:
		return 0.1
	case fetchKm < 5:
		return 0.2
	case fetchKm < 10:
		return 0.35
	case fetchKm < 20:
		return 0.5
	case fetchKm < 50:
		return 0.7
	default:
		return 1.0
	}
}

// AdjustWaveHeight scales a wind-wave height by the fetch factor.
func AdjustWaveHeight(height, fetchKm float64) float64 {
	return height * FetchFactor(fetchKm)
}
