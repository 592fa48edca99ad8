// Package geo provides the coordinate primitives shared by the weather,
// tracking and anchoring packages.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// DegreesPerHalfKm is the flat-earth latitude span of a 0.5 km step.
const DegreesPerHalfKm = 0.0045

// ErrInvalidCoordinate is returned for latitudes or longitudes out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate is within [-90,90]x[-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) ||
		c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinate, c.Lat, c.Lon)
	}
	return nil
}

// String formats the coordinate for logs.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceKm is Distance in kilometers.
func DistanceKm(a, b Coordinate) float64 {
	return Distance(a, b) / 1000
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Reciprocal returns the opposite compass bearing.
func Reciprocal(d float64) float64 {
	return NormalizeDegrees(d + 180)
}

// Offset moves c by km along bearingDeg using the flat-earth approximation
// (0.5 km ~ 0.0045 degrees of latitude, longitude scaled by 1/cos(lat)).
// It is only meant for short steps.
func Offset(c Coordinate, bearingDeg, km float64) Coordinate {
	rad := bearingDeg * math.Pi / 180
	deg := km / 0.5 * DegreesPerHalfKm
	dLat := deg * math.Cos(rad)
	dLon := deg * math.Sin(rad) / math.Cos(c.Lat*math.Pi/180)
	return Coordinate{Lat: c.Lat + dLat, Lon: c.Lon + dLon}
}

// BoundingBox is a latitude/longitude rectangle.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Contains reports whether c is inside the box, edges included.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// Center returns the box midpoint.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// Validate checks corners are valid and ordered.
func (b BoundingBox) Validate() error {
	if err := (Coordinate{Lat: b.MinLat, Lon: b.MinLon}).Validate(); err != nil {
		return err
	}
	if err := (Coordinate{Lat: b.MaxLat, Lon: b.MaxLon}).Validate(); err != nil {
		return err
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("%w: inverted bounding box", ErrInvalidCoordinate)
	}
	return nil
}

// GridSize returns how many points Grid would produce for step without
// building them. Counts beyond math.MaxInt32 are clamped.
func (b BoundingBox) GridSize(step float64) int {
	if !(step > 0) {
		return 1
	}
	n := gridAxis(b.MaxLat-b.MinLat, step) * gridAxis(b.MaxLon-b.MinLon, step)
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// Grid returns the points of a regular grid covering the box with the given
// spacing in degrees, row by row from the south-west corner. Callers should
// bound GridSize first.
func (b BoundingBox) Grid(step float64) []Coordinate {
	if !(step > 0) {
		return []Coordinate{b.Center()}
	}
	rows := int(gridAxis(b.MaxLat-b.MinLat, step))
	cols := int(gridAxis(b.MaxLon-b.MinLon, step))
	points := make([]Coordinate, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			points = append(points, Coordinate{
				Lat: b.MinLat + float64(i)*step,
				Lon: b.MinLon + float64(j)*step,
			})
		}
	}
	return points
}

// gridAxis counts steps along span, tolerating rounding at the far edge.
func gridAxis(span, step float64) float64 {
	return math.Floor(span/step+1e-9) + 1
}
