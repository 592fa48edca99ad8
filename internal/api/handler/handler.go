// Package handler provides HTTP handlers for the DenizRota API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/anchor"
	"github.com/denizrota/denizrota/internal/anchorage"
	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/settings"
	"github.com/denizrota/denizrota/internal/tracker"
	"github.com/denizrota/denizrota/internal/trip"
	"github.com/denizrota/denizrota/internal/vessel"
	"github.com/denizrota/denizrota/internal/weather"
)

// maxBodyBytes bounds request bodies. A full position batch fits well
// within it.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body. An empty body
// decodes to the zero value when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// queryFloat parses a float query parameter. ok is false when the parameter
// is absent.
func queryFloat(r *http.Request, name string) (v float64, ok bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("%s must be a number", name)
	}
	return v, true, nil
}

// requiredFloats parses required float query parameters in order, collecting
// one field error per bad parameter.
func requiredFloats(r *http.Request, names ...string) ([]float64, []models.FieldError) {
	out := make([]float64, len(names))
	var errs []models.FieldError
	for i, name := range names {
		v, ok, err := queryFloat(r, name)
		switch {
		case err != nil:
			errs = append(errs, models.FieldError{Field: name, Message: "must be a number", Code: "INVALID"})
		case !ok:
			errs = append(errs, models.FieldError{Field: name, Message: "is required", Code: "REQUIRED"})
		default:
			out[i] = v
		}
	}
	return out, errs
}

// queryTime parses an RFC 3339 time query parameter, defaulting to now.
func queryTime(r *http.Request, name string, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 time", name)
	}
	return t, nil
}

// queryLimit parses the limit query parameter within (0, max].
func queryLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return 0, fmt.Errorf("limit must be between 1 and %d", max)
	}
	return n, nil
}

// writeError maps domain errors onto problem responses. Anything unknown is
// logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var (
		routeInvalid    *route.ValidationError
		settingsInvalid *settings.ValidationError
	)

	switch {
	case errors.As(err, &routeInvalid):
		response.BadRequest(w, r, "route is invalid", routeInvalid.Errors)
	case errors.As(err, &settingsInvalid):
		response.BadRequest(w, r, "settings are invalid", settingsInvalid.Errors)
	case errors.Is(err, weather.ErrInvalidCoordinates),
		errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, weather.ErrGridTooLarge),
		errors.Is(err, anchorage.ErrInvalidRadius),
		errors.Is(err, anchor.ErrInvalidCenter),
		errors.Is(err, vessel.ErrNoRoute):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, route.ErrRouteNotFound),
		errors.Is(err, trip.ErrTripNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, anchor.ErrNotReady),
		errors.Is(err, tracker.ErrNoActiveTrip):
		response.NotReady(w, r, err.Error())
	case errors.Is(err, tracker.ErrTripActive):
		response.Conflict(w, r, err.Error())
	case errors.Is(err, weather.ErrNetwork),
		errors.Is(err, weather.ErrUpstream),
		errors.Is(err, weather.ErrDecoding),
		errors.Is(err, anchorage.ErrWindUnavailable),
		errors.Is(err, anchorage.ErrCatalogUnreadable),
		errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("upstream unavailable")
		response.ServiceUnavailable(w, r, "forecast data is temporarily unavailable")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func errField(field, msg string) models.FieldError {
	return models.FieldError{Field: field, Message: msg, Code: "INVALID"}
}
