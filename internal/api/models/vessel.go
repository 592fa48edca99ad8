package models

import (
	"time"

	"github.com/denizrota/denizrota/internal/geo"
)

// MaxPositionBatch caps the fixes accepted in one ingest request.
const MaxPositionBatch = 500

// PositionFix is one device fix. A zero Timestamp means "now".
type PositionFix struct {
	Coordinate          geo.Coordinate `json:"coordinate"`
	Timestamp           time.Time      `json:"timestamp"`
	SpeedKmh            float64        `json:"speedKmh"`
	HorizontalAccuracyM float64        `json:"horizontalAccuracyM"`
}

// PositionBatchRequest is the body of POST /v1/positions.
type PositionBatchRequest struct {
	Positions []PositionFix `json:"positions"`
}

// PositionBatchResponse reports how a batch was filtered.
type PositionBatchResponse struct {
	Accepted int  `json:"accepted"`
	Rejected int  `json:"rejected"`
	Alarm    bool `json:"alarm"`
}

// AnchorCenterRequest sets the drafting center.
type AnchorCenterRequest struct {
	Center *geo.Coordinate `json:"center"`
}

// AnchorRadiusRequest sets the drafting radius in meters.
type AnchorRadiusRequest struct {
	RadiusM *float64 `json:"radiusM"`
}

// NavigationRequest starts following a saved route.
type NavigationRequest struct {
	RouteID string `json:"routeId"`
}
