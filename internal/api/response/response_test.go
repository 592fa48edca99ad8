package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/api/middleware"
	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/api/response"
)

// requestWithID runs a request through the RequestID middleware so that the
// context carries a request ID.
func requestWithID(t *testing.T, method, path, clientID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	if clientID != "" {
		req.Header.Set("X-Request-Id", clientID)
	}

	var processed *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, processed)
	return processed
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/settings", "")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]float64{"averageSpeedKmh": 15})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Regexp(t, `^req_`, rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"averageSpeedKmh":15}`, rec.Body.String())
}

func TestJSON_PropagatesClientRequestID(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/anchor", "client-request-123")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	assert.Equal(t, "client-request-123", rec.Header().Get("X-Request-Id"))
	assert.Zero(t, rec.Body.Len())
}

func TestCreated_SetsLocation(t *testing.T) {
	req := requestWithID(t, http.MethodPost, "/v1/routes", "")
	rec := httptest.NewRecorder()

	response.Created(rec, req, "/v1/routes/rte_123", map[string]string{"id": "rte_123"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/routes/rte_123", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestNoContent(t *testing.T) {
	req := requestWithID(t, http.MethodDelete, "/v1/routes/rte_123", "")
	rec := httptest.NewRecorder()

	response.NoContent(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Zero(t, rec.Body.Len())
}

func TestProblemResponses(t *testing.T) {
	tests := []struct {
		name     string
		write    func(w http.ResponseWriter, r *http.Request)
		status   int
		wantType string
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.BadRequest(w, r, "invalid input", []models.FieldError{{Field: "lat", Message: "is required"}})
			},
			status:   http.StatusBadRequest,
			wantType: models.ProblemTypeValidation,
		},
		{
			name:     "not found",
			write:    func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "route not found") },
			status:   http.StatusNotFound,
			wantType: models.ProblemTypeNotFound,
		},
		{
			name:     "conflict",
			write:    func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "trip already active") },
			status:   http.StatusConflict,
			wantType: models.ProblemTypeConflict,
		},
		{
			name:     "not ready",
			write:    func(w http.ResponseWriter, r *http.Request) { response.NotReady(w, r, "anchor alarm not ready") },
			status:   http.StatusConflict,
			wantType: models.ProblemTypeNotReady,
		},
		{
			name:     "internal",
			write:    func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "storage error") },
			status:   http.StatusInternalServerError,
			wantType: models.ProblemTypeInternal,
		},
		{
			name:     "unavailable",
			write:    func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "forecast unavailable") },
			status:   http.StatusServiceUnavailable,
			wantType: models.ProblemTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithID(t, http.MethodGet, "/v1/test", "req_fixed")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, "req_fixed", problem.TraceID)
			assert.Equal(t, "/v1/test", problem.Instance)
		})
	}
}
