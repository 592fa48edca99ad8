// Package main provides the entrypoint for the DenizRota cache warm-up worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/api/middleware"
	"github.com/denizrota/denizrota/internal/api/response"
	"github.com/denizrota/denizrota/internal/provider/resilience"
	"github.com/denizrota/denizrota/internal/telemetry"
	"github.com/denizrota/denizrota/internal/weather"
	"github.com/denizrota/denizrota/internal/weather/openmeteo"
	"github.com/denizrota/denizrota/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "denizrota-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DenizRota worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := getEnvOrDefault("APP_PORT", "8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	weatherMetrics, err := weather.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize weather metrics")
	}

	registry := resilience.NewRegistry()
	openMeteo := openmeteo.NewClient(openmeteo.ClientConfig{
		ForecastURL: os.Getenv("OPEN_METEO_FORECAST_URL"),
		MarineURL:   os.Getenv("OPEN_METEO_MARINE_URL"),
		Registry:    registry,
		Logger:      log,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Atmospheric: openMeteo,
		Marine:      openMeteo,
		Logger:      log,
		Metrics:     weatherMetrics,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         worker.DefaultRefreshConfig(),
		Logger:         log,
		WeatherService: weatherService,
	})

	// Health and manual trigger endpoints
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)

	jobs := worker.NewJobHandler(refreshJob, log)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"refresh": refreshJob.MetricsSnapshot(),
			"legs":    registry.Legs(),
		})
	})
	r.Post("/jobs", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			response.BadRequest(w, r, "unreadable body", nil)
			return
		}
		switch err := jobs.Handle(r.Context(), body); {
		case errors.Is(err, worker.ErrMalformedMessage), errors.Is(err, worker.ErrUnknownJob):
			response.BadRequest(w, r, err.Error(), nil)
		case err != nil:
			response.ServiceUnavailable(w, r, err.Error())
		default:
			response.NoContent(w, r)
		}
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute, // synchronous refresh jobs
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		interval, err := time.ParseDuration(getEnvOrDefault("REFRESH_INTERVAL", "30m"))
		if err != nil || interval <= 0 {
			log.Fatal().Str("value", os.Getenv("REFRESH_INTERVAL")).Msg("invalid REFRESH_INTERVAL")
		}
		log.Info().Dur("interval", interval).Msg("pubsub not configured, refreshing on a timer")
		go runPeriodic(ctx, jobs, interval, log)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// runPeriodic warms the cache immediately and then every interval.
func runPeriodic(ctx context.Context, jobs *worker.PubSubHandler, interval time.Duration, log zerolog.Logger) {
	msg, _ := json.Marshal(worker.RefreshMessage{JobType: worker.JobWeatherRefresh}) //nolint:errcheck // static payload

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := jobs.Handle(ctx, msg); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("scheduled refresh failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
