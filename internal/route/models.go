// Package route stores planned passages and assesses them against the
// forecast.
package route

import (
	"errors"
	"time"

	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/risk"
	"github.com/denizrota/denizrota/internal/tracker"
	"github.com/denizrota/denizrota/internal/weather"
	"github.com/denizrota/denizrota/pkg/polyline"
)

// Limits.
const (
	MaxWaypoints   = 50
	MaxNameLength  = 80
	DefaultSpacing = 5.0 // km between waypoints imported from a polyline
)

// Repository errors.
var (
	ErrRouteNotFound = errors.New("route not found")
)

// Waypoint is one stop on a route. Order is its zero-based position.
type Waypoint struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Order      int            `json:"order"`
}

// Route is a saved passage plan.
type Route struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Waypoints []Waypoint `json:"waypoints"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Path returns the waypoint coordinates in order.
func (r *Route) Path() []geo.Coordinate {
	path := make([]geo.Coordinate, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		path[i] = wp.Coordinate
	}
	return path
}

// DistanceKm is the great-circle length of the route.
func (r *Route) DistanceKm() float64 {
	return polyline.Length(r.Path()) / 1000
}

// Polyline encodes the route path.
func (r *Route) Polyline() string {
	return polyline.Encode(r.Path())
}

// TrackerWaypoints converts the route for arrival tracking.
func (r *Route) TrackerWaypoints() []tracker.Waypoint {
	out := make([]tracker.Waypoint, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		out[i] = tracker.Waypoint{ID: wp.ID, Name: wp.Name, Coordinate: wp.Coordinate}
	}
	return out
}

func (r *Route) clone() *Route {
	cpy := *r
	cpy.Waypoints = append([]Waypoint(nil), r.Waypoints...)
	return &cpy
}

// Params are the vessel figures an assessment depends on.
type Params struct {
	AverageSpeedKmh float64
	FuelRateLph     float64
	FuelPrice       float64
}

// WaypointAssessment is the forecast at one waypoint at its ETA.
type WaypointAssessment struct {
	Waypoint            Waypoint        `json:"waypoint"`
	DistanceFromStartKm float64         `json:"distanceFromStartKm"`
	ETA                 time.Time       `json:"eta"`
	Weather             *weather.Sample `json:"weather,omitempty"`
	Risk                risk.Level      `json:"risk"`
	Error               string          `json:"error,omitempty"`
}

// Assessment is a whole-route forecast.
type Assessment struct {
	RouteID         string               `json:"routeId,omitempty"`
	Departure       time.Time            `json:"departure"`
	Arrival         time.Time            `json:"arrival"`
	TotalDistanceKm float64              `json:"totalDistanceKm"`
	DurationMinutes float64              `json:"durationMinutes"`
	FuelLitres      float64              `json:"fuelLitres"`
	FuelCost        float64              `json:"fuelCost"`
	WorstRisk       risk.Level           `json:"worstRisk"`
	Waypoints       []WaypointAssessment `json:"waypoints"`
}

// ValidationError represents a validation error.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
