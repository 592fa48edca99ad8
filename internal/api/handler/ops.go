package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/provider/resilience"
	"github.com/denizrota/denizrota/internal/weather"
)

// readyTimeout bounds each readiness check.
const readyTimeout = 2 * time.Second

// ReadinessCheck is a named dependency probe, such as a database ping.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// CacheReporter exposes weather cache statistics.
type CacheReporter interface {
	CacheStats() weather.CacheStats
}

// OpsConfig holds the dependencies of OpsHandler. Every field but the build
// info is optional.
type OpsConfig struct {
	Version   string
	BuildTime string
	Registry  *resilience.Registry
	Checks    []ReadinessCheck
	Cache     CacheReporter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It fails with 503 when any
// dependency check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())

	status := models.HealthStatusOK
	details := map[string]interface{}{}
	for _, s := range subsystems {
		details[s.Name] = s.Status
		if s.Status != models.HealthStatusOK {
			status = models.HealthStatusFail
		}
	}

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	})
}

// SystemStatus handles GET /v1/ops/status - dependency and provider status.
// An open circuit degrades the service rather than failing it, since cached
// forecasts are still served.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems := h.runChecks(r.Context())
	if h.cfg.Cache != nil {
		subsystems = append(subsystems, cacheSubsystem(h.cfg.Cache.CacheStats()))
	}
	legs, providers := h.forecastStatus()

	overall := models.HealthStatusOK
	for _, s := range subsystems {
		if s.Status == models.HealthStatusFail {
			overall = models.HealthStatusFail
		}
	}
	if overall == models.HealthStatusOK {
		for _, l := range legs {
			if l.Status != models.HealthStatusOK {
				overall = models.HealthStatusDegraded
			}
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
		Legs:       legs,
		Providers:  providers,
	})
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	out := make([]models.SubsystemStatus, 0, len(h.cfg.Checks))
	for _, c := range h.cfg.Checks {
		cctx, cancel := context.WithTimeout(ctx, readyTimeout)
		err := c.Check(cctx)
		cancel()

		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
		if err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		out = append(out, s)
	}
	return out
}

func (h *OpsHandler) forecastStatus() ([]models.LegStatus, []models.ProviderStatus) {
	if h.cfg.Registry == nil {
		return []models.LegStatus{}, []models.ProviderStatus{}
	}

	legs := h.cfg.Registry.Legs()
	legOut := make([]models.LegStatus, 0, len(legs))
	for _, l := range legs {
		ls := models.LegStatus{
			Leg:              string(l.Leg),
			Status:           models.HealthStatusOK,
			Mode:             string(l.Mode),
			ServingFromCache: l.ServingFromCache(),
			Since:            models.TimePtr(l.OpenedAt),
			LastErrorKind:    kindPtr(l.LastErrorKind),
		}
		if l.Mode != resilience.ModeLive {
			ls.Status = models.HealthStatusDegraded
			msg := legMessage(l)
			ls.Message = &msg
		}
		legOut = append(legOut, ls)
	}

	health := h.cfg.Registry.Providers()
	provOut := make([]models.ProviderStatus, 0, len(health))
	for _, ph := range health {
		ps := models.ProviderStatus{
			Provider:            ph.Name,
			Leg:                 string(ph.Leg),
			Status:              models.HealthStatusOK,
			CircuitState:        ph.CircuitState.String(),
			Requests:            ph.Counts.Requests,
			ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
			LastSuccessAt:       models.TimePtr(ph.LastSuccessAt),
			LastFailureAt:       models.TimePtr(ph.LastFailureAt),
			LastErrorKind:       kindPtr(ph.LastErrorKind),
		}
		switch ph.Mode() {
		case resilience.ModeCacheOnly:
			ps.Status = models.HealthStatusFail
		case resilience.ModeRecovering:
			ps.Status = models.HealthStatusDegraded
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		provOut = append(provOut, ps)
	}
	return legOut, provOut
}

func legMessage(l resilience.LegHealth) string {
	switch {
	case l.Mode == resilience.ModeRecovering:
		return "endpoint recovering, trial requests allowed"
	case l.Leg == resilience.LegMarine:
		return "serving from cache, uncached points assume calm sea"
	default:
		return "serving from cache, uncached points are unavailable"
	}
}

func kindPtr(k resilience.FailureKind) *string {
	if k == "" {
		return nil
	}
	s := string(k)
	return &s
}

func cacheSubsystem(st weather.CacheStats) models.SubsystemStatus {
	detail := fmt.Sprintf("samples %d/%d fresh, wind-only %d/%d fresh, raw %d+%d, provider %s",
		st.Samples.FreshEntries, st.Samples.Entries,
		st.WindOnly.FreshEntries, st.WindOnly.Entries,
		st.Atmospheric.Entries, st.Marine.Entries,
		st.Provider)
	return models.SubsystemStatus{
		Name:   "weather-cache",
		Status: models.HealthStatusOK,
		Detail: &detail,
	}
}
