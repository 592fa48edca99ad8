// Package main provides the entrypoint for the DenizRota API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/anchorage"
	"github.com/denizrota/denizrota/internal/api"
	"github.com/denizrota/denizrota/internal/api/handler"
	"github.com/denizrota/denizrota/internal/api/middleware"
	"github.com/denizrota/denizrota/internal/database"
	"github.com/denizrota/denizrota/internal/notify"
	"github.com/denizrota/denizrota/internal/provider/resilience"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/settings"
	"github.com/denizrota/denizrota/internal/telemetry"
	"github.com/denizrota/denizrota/internal/trip"
	"github.com/denizrota/denizrota/internal/vessel"
	"github.com/denizrota/denizrota/internal/weather"
	"github.com/denizrota/denizrota/internal/weather/openmeteo"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "denizrota-api"

	// Setup structured logging
	level, err := zerolog.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DenizRota API")

	port := getEnvOrDefault("APP_PORT", "8080")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Float64("sample_ratio", telemetryCfg.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	weatherMetrics, err := weather.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize weather metrics")
	}

	// Forecast providers
	registry := resilience.NewRegistry()
	openMeteo := openmeteo.NewClient(openmeteo.ClientConfig{
		ForecastURL: os.Getenv("OPEN_METEO_FORECAST_URL"),
		MarineURL:   os.Getenv("OPEN_METEO_MARINE_URL"),
		Registry:    registry,
		Logger:      log,
	})

	cacheTTL, err := time.ParseDuration(getEnvOrDefault("WEATHER_CACHE_TTL", "1h"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid WEATHER_CACHE_TTL")
	}
	maxEntries, _ := strconv.Atoi(getEnvOrDefault("WEATHER_CACHE_MAX_ENTRIES", "20000"))

	weatherService := weather.NewService(weather.ServiceConfig{
		Atmospheric:     openMeteo,
		Marine:          openMeteo,
		Logger:          log,
		Metrics:         weatherMetrics,
		CacheTTL:        cacheTTL,
		MaxCacheEntries: maxEntries,
	})
	log.Info().
		Dur("cache_ttl", cacheTTL).
		Int("max_entries", maxEntries).
		Msg("weather service initialized")

	// Storage
	dbConfig, err := database.ConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database configuration")
	}

	var (
		routeRepo    route.Repository
		tripRepo     trip.Repository
		settingsRepo settings.Repository
		checks       []handler.ReadinessCheck
	)
	switch dbConfig.Driver {
	case database.DriverPostgres:
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Bool("migrated", dbConfig.Migrate).
			Msg("database connected")

		routeRepo = route.NewPostgresRepository(pool)
		tripRepo = trip.NewPostgresRepository(pool)
		settingsRepo = settings.NewPostgresRepository(pool)
		checks = append(checks, handler.ReadinessCheck{Name: "database", Check: database.Ping(pool)})
	default:
		log.Warn().Msg("using in-memory storage, routes and trips are lost on restart")
		routeRepo = route.NewInMemoryRepository()
		tripRepo = trip.NewInMemoryRepository()
		settingsRepo = settings.NewInMemoryRepository()
	}

	// Anchorage catalog
	var catalog anchorage.Catalog
	if path := os.Getenv("ANCHORAGE_DB_PATH"); path != "" {
		sqliteCatalog, err := anchorage.OpenSQLiteCatalog(ctx, path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to open anchorage catalog")
		}
		defer sqliteCatalog.Close()
		catalog = sqliteCatalog
		log.Info().Str("path", path).Msg("anchorage catalog opened")
	}

	// Notifications
	sink, closeSink := notificationSink(ctx, log)
	defer closeSink()

	settingsService := settings.NewService(settingsRepo)
	tripService := trip.NewService(tripRepo)
	session := vessel.NewSession(vessel.SessionConfig{
		Sink:        sink,
		RadiusStore: settingsService,
		Trips:       tripService,
		Logger:      log,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		Registry:        registry,
		ReadinessChecks: checks,
		Weather:         weatherService,
		Anchorages: anchorage.NewService(anchorage.ServiceConfig{
			Catalog: catalog,
			Wind:    weatherService,
			Logger:  log,
		}),
		Routes:   route.NewService(routeRepo),
		Planner:  route.NewPlanner(route.PlannerConfig{Weather: weatherService, Logger: log}),
		Settings: settingsService,
		Trips:    tripService,
		Session:  session,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second, // wind grids fan out upstream
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// notificationSink logs every event and, when PUBSUB_PROJECT_ID and
// NOTIFY_TOPIC are set, also publishes it for push delivery.
func notificationSink(ctx context.Context, log zerolog.Logger) (notify.Sink, func()) {
	logSink := notify.LogSink{Logger: log}

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	topic := os.Getenv("NOTIFY_TOPIC")
	if projectID == "" || topic == "" {
		return logSink, func() {}
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Error().Err(err).Msg("pubsub unavailable, notifications are logged only")
		return logSink, func() {}
	}
	publisher := notify.NewTopicPublisher(client, topic)

	log.Info().
		Str("project", projectID).
		Str("topic", topic).
		Msg("push notifications enabled")

	sink := notify.MultiSink{
		logSink,
		notify.NewPubSubSink(notify.PubSubSinkConfig{
			Publisher: publisher,
			VesselID:  getEnvOrDefault("VESSEL_ID", "default"),
			Logger:    log,
		}),
	}
	return sink, func() {
		publisher.Stop()
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
