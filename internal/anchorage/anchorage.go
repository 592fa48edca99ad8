// Package anchorage ranks nearby coves by how well they shelter a boat
// from the current wind.
package anchorage

import (
	"context"
	"errors"
	"slices"

	"github.com/denizrota/denizrota/internal/geo"
)

// Search limits.
const (
	DefaultRadiusKm = 20.0
	MaxRadiusKm     = 100.0
)

// Errors returned by catalogs and the service.
var (
	ErrInvalidRadius     = errors.New("radius must be greater than 0 and at most 100 km")
	ErrWindUnavailable   = errors.New("wind speed unavailable for anchorage area")
	ErrCatalogUnreadable = errors.New("anchorage catalog unreadable")
)

// Cove is a known anchorage. MouthDirection is the compass bearing the
// cove opens toward.
type Cove struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Region         string         `json:"region"`
	Coordinate     geo.Coordinate `json:"coordinate"`
	MouthDirection float64        `json:"mouthDirection"`
}

// Candidate is a cove found near a search center.
type Candidate struct {
	Cove       Cove
	DistanceKm float64
}

// Catalog finds coves around a point.
type Catalog interface {
	// Nearby returns coves within radiusKm of center, nearest first.
	Nearby(ctx context.Context, center geo.Coordinate, radiusKm float64) ([]Candidate, error)
}

// StaticCatalog serves the bundled cove list from memory.
type StaticCatalog struct {
	coves []Cove
}

// NewStaticCatalog creates a catalog over coves, or the bundled list when
// coves is nil.
func NewStaticCatalog(coves []Cove) *StaticCatalog {
	if coves == nil {
		coves = BundledCoves()
	}
	return &StaticCatalog{coves: coves}
}

// Nearby returns coves within radiusKm of center, nearest first.
func (c *StaticCatalog) Nearby(_ context.Context, center geo.Coordinate, radiusKm float64) ([]Candidate, error) {
	var out []Candidate
	for _, cove := range c.coves {
		if d := geo.DistanceKm(center, cove.Coordinate); d <= radiusKm {
			out = append(out, Candidate{Cove: cove, DistanceKm: d})
		}
	}
	sortByDistance(out)
	return out, nil
}

func sortByDistance(cs []Candidate) {
	slices.SortStableFunc(cs, func(a, b Candidate) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})
}

// Ensure StaticCatalog implements Catalog interface.
var _ Catalog = (*StaticCatalog)(nil)
