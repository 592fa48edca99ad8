package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/anchor"
	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/tracker"
	"github.com/denizrota/denizrota/internal/vessel"
)

// VesselHandler handles the live position stream and route following.
type VesselHandler struct {
	session *vessel.Session
	routes  *route.Service
	logger  zerolog.Logger
	now     func() time.Time
}

// NewVesselHandler creates a new VesselHandler.
func NewVesselHandler(session *vessel.Session, routes *route.Service, logger zerolog.Logger) *VesselHandler {
	return &VesselHandler{session: session, routes: routes, logger: logger, now: time.Now}
}

type positionResult struct {
	models.PositionBatchResponse
	Anchor   anchor.Status    `json:"anchor"`
	Progress tracker.Progress `json:"progress"`
}

// IngestPositions handles POST /v1/positions - a batch of device fixes in
// the order they were taken. Rejected fixes are counted, not reported as
// errors.
func (h *VesselHandler) IngestPositions(w http.ResponseWriter, r *http.Request) {
	var input models.PositionBatchRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	switch {
	case len(input.Positions) == 0:
		response.BadRequest(w, r, "positions is required", []models.FieldError{
			{Field: "positions", Message: "must contain at least 1 entry", Code: "REQUIRED"},
		})
		return
	case len(input.Positions) > models.MaxPositionBatch:
		response.BadRequest(w, r, "too many positions", []models.FieldError{
			{Field: "positions", Message: "must contain at most 500 entries", Code: "TOO_LONG"},
		})
		return
	}

	var out positionResult
	for _, fix := range input.Positions {
		ts := fix.Timestamp
		if ts.IsZero() {
			ts = h.now()
		}
		res := h.session.Ingest(r.Context(), tracker.Position{
			Coordinate:          fix.Coordinate,
			Timestamp:           ts,
			SpeedKmh:            fix.SpeedKmh,
			HorizontalAccuracyM: fix.HorizontalAccuracyM,
		})
		if res.Accepted {
			out.Accepted++
		} else {
			out.Rejected++
		}
		out.Alarm = out.Alarm || res.Alarm
	}

	if out.Rejected > 0 {
		h.logger.Debug().
			Int("accepted", out.Accepted).
			Int("rejected", out.Rejected).
			Msg("position fixes filtered")
	}

	out.Anchor = anchor.Describe(h.session.Anchor().State())
	out.Progress = h.session.Tracker().Progress()
	response.JSON(w, r, http.StatusOK, out)
}

// GetNavigation handles GET /v1/navigation - waypoint progress on the
// followed route.
func (h *VesselHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.session.Tracker().Progress())
}

// StartNavigation handles POST /v1/navigation - follow a saved route from its
// first waypoint.
func (h *VesselHandler) StartNavigation(w http.ResponseWriter, r *http.Request) {
	var input models.NavigationRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if input.RouteID == "" {
		response.BadRequest(w, r, "routeId is required", []models.FieldError{
			{Field: "routeId", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	rt, err := h.routes.Get(r.Context(), input.RouteID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.session.FollowRoute(rt); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().Str("route_id", rt.ID).Msg("following route")
	response.JSON(w, r, http.StatusOK, h.session.Tracker().Progress())
}

// StopNavigation handles DELETE /v1/navigation.
func (h *VesselHandler) StopNavigation(w http.ResponseWriter, r *http.Request) {
	h.session.StopFollowing()
	response.NoContent(w, r)
}
