package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/settings"
)

// maxRouteList caps the limit query parameter on route listing.
const maxRouteList = 200

// RouteHandler handles saved routes and route assessment.
type RouteHandler struct {
	routes   *route.Service
	planner  *route.Planner
	settings *settings.Service
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routes *route.Service, planner *route.Planner, settings *settings.Service, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		routes:   routes,
		planner:  planner,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

type routeView struct {
	*route.Route
	DistanceKm float64 `json:"distanceKm"`
	Polyline   string  `json:"polyline"`
}

func viewRoute(rt *route.Route) routeView {
	return routeView{Route: rt, DistanceKm: rt.DistanceKm(), Polyline: rt.Polyline()}
}

// ListRoutes handles GET /v1/routes.
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, route.DefaultListLimit, maxRouteList)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	routes, err := h.routes.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	views := make([]routeView, len(routes))
	for i, rt := range routes {
		views[i] = viewRoute(rt)
	}
	response.JSON(w, r, http.StatusOK, models.NewPage(views, limit))
}

// CreateRoute handles POST /v1/routes. The body carries either waypoints or
// an encoded polyline.
func (h *RouteHandler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var input route.CreateInput
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	rt, err := h.routes.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("route_id", rt.ID).
		Int("waypoints", len(rt.Waypoints)).
		Msg("route created")
	response.Created(w, r, fmt.Sprintf("/v1/routes/%s", rt.ID), viewRoute(rt))
}

// GetRoute handles GET /v1/routes/{routeId}.
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	rt, err := h.routes.Get(r.Context(), chi.URLParam(r, "routeId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, viewRoute(rt))
}

// RenameRoute handles PATCH /v1/routes/{routeId}.
func (h *RouteHandler) RenameRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteRenameRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	rt, err := h.routes.Rename(r.Context(), chi.URLParam(r, "routeId"), input.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, viewRoute(rt))
}

// DeleteRoute handles DELETE /v1/routes/{routeId}.
func (h *RouteHandler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	if err := h.routes.Delete(r.Context(), chi.URLParam(r, "routeId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

// AssessRoute handles POST /v1/routes:assess - forecast and risk at each
// waypoint's ETA, using the vessel settings for speed and fuel.
func (h *RouteHandler) AssessRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteAssessRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	var rt *route.Route
	switch {
	case input.RouteID != "" && len(input.Waypoints) > 0:
		response.BadRequest(w, r, "routeId cannot be combined with waypoints", nil)
		return
	case input.RouteID != "":
		saved, err := h.routes.Get(r.Context(), input.RouteID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		rt = saved
	default:
		rt = &route.Route{Waypoints: make([]route.Waypoint, len(input.Waypoints))}
		for i, wp := range input.Waypoints {
			name := wp.Name
			if name == "" {
				name = fmt.Sprintf("WP%d", i+1)
			}
			rt.Waypoints[i] = route.Waypoint{
				ID:         fmt.Sprintf("wp_%d", i+1),
				Name:       name,
				Coordinate: wp.Coordinate,
				Order:      i,
			}
		}
	}

	departure := h.now()
	if input.Departure != nil {
		departure = *input.Departure
	}

	prefs, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	assessment, err := h.planner.Assess(r.Context(), rt, departure, route.Params{
		AverageSpeedKmh: prefs.AverageSpeedKmh,
		FuelRateLph:     prefs.FuelRateLph,
		FuelPrice:       prefs.FuelPrice,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, assessment)
}
