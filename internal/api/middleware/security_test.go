package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/api/middleware"
	"github.com/denizrota/denizrota/internal/api/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/anchor", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"), "handler headers survive")

	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Permissions-Policy":        "geolocation=(), camera=(), microphone=()",
	}
	for header, value := range want {
		assert.Equal(t, value, rec.Header().Get(header), header)
	}
}

func TestRequireTLS(t *testing.T) {
	tests := []struct {
		name    string
		enabled string
		proto   string
		status  int
	}{
		{"disabled allows http", "", "http", http.StatusOK},
		{"enabled rejects http", "true", "http", http.StatusForbidden},
		{"enabled allows https", "true", "https", http.StatusOK},
		{"enabled allows direct connections", "true", "", http.StatusOK},
		{"only the literal true enables", "1", "http", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REQUIRE_TLS", tt.enabled)

			req := httptest.NewRequest(http.MethodPost, "/v1/positions", http.NoBody)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()
			middleware.RequireTLS(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireTLS_RejectionIsProblem(t *testing.T) {
	t.Setenv("REQUIRE_TLS", "true")

	chain := middleware.RequestID(middleware.SecurityHeaders(middleware.RequireTLS(okHandler)))
	req := httptest.NewRequest(http.MethodPost, "/v1/positions", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeTLSRequired, problem.Type)
	assert.Equal(t, "/v1/positions", problem.Instance)
	assert.Equal(t, "This endpoint requires HTTPS", problem.Detail)
	assert.NotEmpty(t, problem.TraceID)
}
