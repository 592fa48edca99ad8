package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/anchorage"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/geo"
)

// AnchorageHandler handles the anchorage browser.
type AnchorageHandler struct {
	service *anchorage.Service
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAnchorageHandler creates a new AnchorageHandler.
func NewAnchorageHandler(service *anchorage.Service, logger zerolog.Logger) *AnchorageHandler {
	return &AnchorageHandler{service: service, logger: logger, now: time.Now}
}

// ListAnchorages handles GET /v1/anchorages?lat=&lon=&radiusKm=&time= -
// nearby coves ranked by shelter from the current wind.
func (h *AnchorageHandler) ListAnchorages(w http.ResponseWriter, r *http.Request) {
	vals, fieldErrs := requiredFloats(r, "lat", "lon")
	radius, _, err := queryFloat(r, "radiusKm")
	if err != nil {
		fieldErrs = append(fieldErrs, errField("radiusKm", err.Error()))
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}
	at, err := queryTime(r, "time", h.now())
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	ranking, err := h.service.Rank(r.Context(), geo.Coordinate{Lat: vals[0], Lon: vals[1]}, radius, at)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, ranking)
}
