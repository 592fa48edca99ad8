package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	fieldErrors := []models.FieldError{
		{Field: "waypoints[0].coordinate", Message: "invalid coordinate", Code: "OUT_OF_RANGE"},
		{Field: "name", Message: "is required", Code: "REQUIRED"},
	}

	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_test123").
		WithDetail("route is invalid").
		WithInstance("/v1/routes").
		WithErrors(fieldErrors)

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Equal(t, "route is invalid", p.Detail)
	assert.Equal(t, "/v1/routes", p.Instance)
	require.Len(t, p.Errors, 2)
	assert.Equal(t, "OUT_OF_RANGE", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "averageSpeedKmh", Message: "must be greater than 0 and at most 100"},
	})
	p.Instance = "/v1/settings"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, models.ProblemTypeValidation, result.Type)
	assert.Equal(t, "/v1/settings", result.Instance)
	assert.Equal(t, "req_test123", result.TraceID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "averageSpeedKmh", result.Errors[0].Field)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name     string
		problem  *models.Problem
		wantType string
		title    string
		status   int
	}{
		{"bad request", models.NewBadRequest("req_1", "d", nil), models.ProblemTypeValidation, "Validation error", http.StatusBadRequest},
		{"not found", models.NewNotFound("req_1", "d"), models.ProblemTypeNotFound, "Not found", http.StatusNotFound},
		{"conflict", models.NewConflict("req_1", "d"), models.ProblemTypeConflict, "Conflict", http.StatusConflict},
		{"not ready", models.NewNotReady("req_1", "d"), models.ProblemTypeNotReady, "Not ready", http.StatusConflict},
		{"too many requests", models.NewTooManyRequests("req_1", "d"), models.ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests},
		{"internal", models.NewInternalError("req_1", "d"), models.ProblemTypeInternal, "Internal server error", http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("req_1", "d"), models.ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.problem.Type)
			assert.Equal(t, tt.title, tt.problem.Title)
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, "d", tt.problem.Detail)
			assert.Equal(t, "req_1", tt.problem.TraceID)
		})
	}
}
