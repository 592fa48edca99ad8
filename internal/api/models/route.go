package models

import (
	"time"

	"github.com/denizrota/denizrota/internal/geo"
)

// AssessWaypoint is an unsaved waypoint in an assess request.
type AssessWaypoint struct {
	Name       string         `json:"name,omitempty"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// RouteAssessRequest is the body of POST /v1/routes:assess. Either RouteID
// or Waypoints is set. A nil Departure means "now".
type RouteAssessRequest struct {
	RouteID   string           `json:"routeId,omitempty"`
	Waypoints []AssessWaypoint `json:"waypoints,omitempty"`
	Departure *time.Time       `json:"departure,omitempty"`
}

// RouteRenameRequest is the body of PATCH /v1/routes/{routeId}.
type RouteRenameRequest struct {
	Name string `json:"name"`
}
