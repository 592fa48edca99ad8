package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/risk"
	"github.com/denizrota/denizrota/internal/weather"
)

// DefaultGridStep is the wind grid spacing in degrees when none is given.
const DefaultGridStep = 0.1

// WeatherService is the subset of weather.Service the handler needs.
type WeatherService interface {
	FetchWeather(ctx context.Context, c geo.Coordinate, t time.Time) (*weather.Sample, error)
	FetchGrid(ctx context.Context, box geo.BoundingBox, step float64, t time.Time) ([]weather.GridPoint, error)
}

// WeatherHandler handles forecast endpoints.
type WeatherHandler struct {
	service WeatherService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service WeatherService, logger zerolog.Logger) *WeatherHandler {
	return &WeatherHandler{service: service, logger: logger, now: time.Now}
}

type weatherResponse struct {
	Coordinate geo.Coordinate  `json:"coordinate"`
	Sample     *weather.Sample `json:"sample"`
	Risk       risk.Level      `json:"risk"`
}

type gridCell struct {
	Coordinate geo.Coordinate  `json:"coordinate"`
	Sample     *weather.Sample `json:"sample,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type gridResponse struct {
	Box    geo.BoundingBox `json:"box"`
	Step   float64         `json:"step"`
	Time   time.Time       `json:"time"`
	Failed int             `json:"failed"`
	Cells  []gridCell      `json:"cells"`
}

// GetWeather handles GET /v1/weather?lat=&lon=&time= - the fetch-adjusted
// sample nearest to time at one point.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	vals, fieldErrs := requiredFloats(r, "lat", "lon")
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}
	at, err := queryTime(r, "time", h.now())
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	c := geo.Coordinate{Lat: vals[0], Lon: vals[1]}
	sample, err := h.service.FetchWeather(r.Context(), c, at)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, weatherResponse{
		Coordinate: c,
		Sample:     sample,
		Risk:       sample.Risk(),
	})
}

// GetWindGrid handles GET /v1/weather/wind-grid - wind-only samples over a
// box. Cells that fail carry an error; the rest are still returned.
func (h *WeatherHandler) GetWindGrid(w http.ResponseWriter, r *http.Request) {
	vals, fieldErrs := requiredFloats(r, "minLat", "maxLat", "minLon", "maxLon")
	step, ok, err := queryFloat(r, "step")
	if err != nil {
		fieldErrs = append(fieldErrs, errField("step", err.Error()))
	}
	if !ok {
		step = DefaultGridStep
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}
	if !(step > 0) {
		response.BadRequest(w, r, "step must be positive", nil)
		return
	}
	at, err := queryTime(r, "time", h.now())
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	box := geo.BoundingBox{MinLat: vals[0], MaxLat: vals[1], MinLon: vals[2], MaxLon: vals[3]}
	points, err := h.service.FetchGrid(r.Context(), box, step, at)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := gridResponse{Box: box, Step: step, Time: at, Cells: make([]gridCell, len(points))}
	for i, p := range points {
		out.Cells[i] = gridCell{Coordinate: p.Coordinate, Sample: p.Sample}
		if p.Err != nil {
			out.Cells[i].Error = p.Err.Error()
			out.Failed++
		}
	}
	if len(points) > 0 && out.Failed == len(points) {
		// Nothing cached and every upstream call failed.
		response.ServiceUnavailable(w, r, "forecast data is temporarily unavailable")
		return
	}
	response.JSON(w, r, http.StatusOK, out)
}
