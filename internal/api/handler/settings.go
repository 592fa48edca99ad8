package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/settings"
)

// SettingsHandler handles vessel settings.
type SettingsHandler struct {
	service *settings.Service
	logger  zerolog.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(service *settings.Service, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, logger: logger}
}

// GetSettings handles GET /v1/settings.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, s)
}

// UpdateSettings handles PUT /v1/settings. Omitted fields keep their value;
// nothing is stored when any field is invalid.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var input settings.Update
	if err := decodeJSON(r, &input, false); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	s, err := h.service.Update(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, s)
}
