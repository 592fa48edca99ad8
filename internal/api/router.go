// Package api provides the HTTP API for DenizRota.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/anchorage"
	"github.com/denizrota/denizrota/internal/api/handler"
	"github.com/denizrota/denizrota/internal/api/middleware"
	"github.com/denizrota/denizrota/internal/provider/resilience"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/settings"
	"github.com/denizrota/denizrota/internal/trip"
	"github.com/denizrota/denizrota/internal/vessel"
	"github.com/denizrota/denizrota/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Registry reports forecast provider health on /v1/ops/status.
	Registry *resilience.Registry

	// ReadinessChecks run on /v1/ops/ready and /v1/ops/status.
	ReadinessChecks []handler.ReadinessCheck

	Weather    *weather.Service
	Anchorages *anchorage.Service
	Routes     *route.Service
	Planner    *route.Planner
	Settings   *settings.Service
	Trips      *trip.Service
	Session    *vessel.Session
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "denizrota-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS)
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsCfg := handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Checks:    cfg.ReadinessChecks,
	}
	if cfg.Weather != nil {
		opsCfg.Cache = cfg.Weather
	}
	opsHandler := handler.NewOpsHandler(opsCfg)
	weatherHandler := handler.NewWeatherHandler(cfg.Weather, cfg.Logger)
	anchorageHandler := handler.NewAnchorageHandler(cfg.Anchorages, cfg.Logger)
	routeHandler := handler.NewRouteHandler(cfg.Routes, cfg.Planner, cfg.Settings, cfg.Logger)
	vesselHandler := handler.NewVesselHandler(cfg.Session, cfg.Routes, cfg.Logger)
	tripHandler := handler.NewTripHandler(cfg.Session, cfg.Trips, cfg.Logger)
	anchorHandler := handler.NewAnchorHandler(cfg.Session, cfg.Logger)
	settingsHandler := handler.NewSettingsHandler(cfg.Settings, cfg.Logger)

	positionRateLimit := middleware.RateLimitByDevice(middleware.PositionRateLimit)   // 600 req/min
	expensiveRateLimit := middleware.RateLimitByDevice(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByDevice(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints are not rate limited so health checks never see 429.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Position stream - high volume, keyed per device
		r.With(positionRateLimit).Post("/positions", vesselHandler.IngestPositions)

		// Forecast fan-out endpoints
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Get("/weather/wind-grid", weatherHandler.GetWindGrid)
			r.Post("/routes:assess", routeHandler.AssessRoute)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Get("/weather", weatherHandler.GetWeather)
			r.Get("/anchorages", anchorageHandler.ListAnchorages)

			// Saved routes
			r.Get("/routes", routeHandler.ListRoutes)
			r.Post("/routes", routeHandler.CreateRoute)
			r.Get("/routes/{routeId}", routeHandler.GetRoute)
			r.Patch("/routes/{routeId}", routeHandler.RenameRoute)
			r.Delete("/routes/{routeId}", routeHandler.DeleteRoute)

			// Route following
			r.Get("/navigation", vesselHandler.GetNavigation)
			r.Post("/navigation", vesselHandler.StartNavigation)
			r.Delete("/navigation", vesselHandler.StopNavigation)

			// Trips
			r.Get("/trips", tripHandler.ListTrips)
			r.Post("/trips:start", tripHandler.StartTrip)
			r.Post("/trips:stop", tripHandler.StopTrip)
			r.Get("/trips/current", tripHandler.CurrentTrip)
			r.Get("/trips/{tripId}", tripHandler.GetTrip)
			r.Delete("/trips/{tripId}", tripHandler.DeleteTrip)

			// Anchor alarm
			r.Get("/anchor", anchorHandler.GetAnchor)
			r.Post("/anchor:draft", anchorHandler.Draft)
			r.Put("/anchor/center", anchorHandler.UpdateCenter)
			r.Put("/anchor/radius", anchorHandler.UpdateRadius)
			r.Post("/anchor:activate", anchorHandler.Activate)
			r.Post("/anchor:deactivate", anchorHandler.Deactivate)
			r.Post("/anchor:cancel", anchorHandler.Cancel)

			// Settings
			r.Get("/settings", settingsHandler.GetSettings)
			r.Put("/settings", settingsHandler.UpdateSettings)
		})
	})

	return r
}
