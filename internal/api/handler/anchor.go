package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/anchor"
	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/vessel"
)

// AnchorHandler drives the anchor alarm state machine.
type AnchorHandler struct {
	session *vessel.Session
	logger  zerolog.Logger
}

// NewAnchorHandler creates a new AnchorHandler.
func NewAnchorHandler(session *vessel.Session, logger zerolog.Logger) *AnchorHandler {
	return &AnchorHandler{session: session, logger: logger}
}

func (h *AnchorHandler) write(w http.ResponseWriter, r *http.Request, s anchor.State, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, anchor.Describe(s))
}

// GetAnchor handles GET /v1/anchor.
func (h *AnchorHandler) GetAnchor(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, anchor.Describe(h.session.Anchor().State()))
}

// Draft handles POST /v1/anchor:draft. Without a center in the body the
// draft starts at the last accepted fix.
func (h *AnchorHandler) Draft(w http.ResponseWriter, r *http.Request) {
	var input models.AnchorCenterRequest
	if err := decodeJSON(r, &input, true); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	center := input.Center
	if center == nil {
		last, ok := h.session.Tracker().LastAccepted()
		if !ok {
			response.BadRequest(w, r, "center is required until a position fix has been accepted", []models.FieldError{
				{Field: "center", Message: "is required", Code: "REQUIRED"},
			})
			return
		}
		center = &last.Coordinate
	}

	s, err := h.session.Anchor().StartDrafting(r.Context(), *center)
	h.write(w, r, s, err)
}

// UpdateCenter handles PUT /v1/anchor/center.
func (h *AnchorHandler) UpdateCenter(w http.ResponseWriter, r *http.Request) {
	var input models.AnchorCenterRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if input.Center == nil {
		response.BadRequest(w, r, "center is required", []models.FieldError{
			{Field: "center", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	s, err := h.session.Anchor().UpdateCenter(*input.Center)
	h.write(w, r, s, err)
}

// UpdateRadius handles PUT /v1/anchor/radius. Out-of-range radii are
// clamped, not rejected.
func (h *AnchorHandler) UpdateRadius(w http.ResponseWriter, r *http.Request) {
	var input models.AnchorRadiusRequest
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if input.RadiusM == nil {
		response.BadRequest(w, r, "radiusM is required", []models.FieldError{
			{Field: "radiusM", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	s, err := h.session.Anchor().UpdateRadius(*input.RadiusM)
	h.write(w, r, s, err)
}

// Activate handles POST /v1/anchor:activate.
func (h *AnchorHandler) Activate(w http.ResponseWriter, r *http.Request) {
	s, err := h.session.Anchor().Activate(r.Context())
	h.write(w, r, s, err)
}

// Deactivate handles POST /v1/anchor:deactivate.
func (h *AnchorHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	s, err := h.session.Anchor().Deactivate()
	h.write(w, r, s, err)
}

// Cancel handles POST /v1/anchor:cancel.
func (h *AnchorHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, err := h.session.Anchor().CancelDrafting()
	h.write(w, r, s, err)
}
