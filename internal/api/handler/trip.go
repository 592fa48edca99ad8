package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/trip"
	"github.com/denizrota/denizrota/internal/vessel"
)

// maxTripList caps the limit query parameter on trip listing.
const maxTripList = 200

// TripHandler handles trip recording and history.
type TripHandler struct {
	session *vessel.Session
	trips   *trip.Service
	logger  zerolog.Logger
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(session *vessel.Session, trips *trip.Service, logger zerolog.Logger) *TripHandler {
	return &TripHandler{session: session, trips: trips, logger: logger}
}

// ListTrips handles GET /v1/trips - finished trips, newest first.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, trip.DefaultListLimit, maxTripList)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	trips, err := h.trips.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewPage(trips, limit))
}

// GetTrip handles GET /v1/trips/{tripId}.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	t, err := h.trips.Get(r.Context(), chi.URLParam(r, "tripId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// DeleteTrip handles DELETE /v1/trips/{tripId}.
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := h.trips.Delete(r.Context(), chi.URLParam(r, "tripId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

// CurrentTrip handles GET /v1/trips/current - the running trip's totals.
func (h *TripHandler) CurrentTrip(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.session.Tracker().Trip()
	if !ok {
		response.NotFound(w, r, "no active trip")
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}

// StartTrip handles POST /v1/trips:start.
func (h *TripHandler) StartTrip(w http.ResponseWriter, r *http.Request) {
	startedAt, err := h.session.StartTrip()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]interface{}{"startedAt": startedAt})
}

// StopTrip handles POST /v1/trips:stop - finalizes and stores the trip.
func (h *TripHandler) StopTrip(w http.ResponseWriter, r *http.Request) {
	t, err := h.session.StopTrip(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, fmt.Sprintf("/v1/trips/%s", t.ID), t)
}
