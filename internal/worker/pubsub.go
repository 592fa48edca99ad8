package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/geo"
)

// Job types carried in RefreshMessage.JobType.
const (
	JobWeatherRefresh = "weather_refresh"
	JobHealthCheck    = "health_check"
)

// Message handling errors.
var (
	ErrMalformedMessage = errors.New("malformed job message")
	ErrUnknownJob       = errors.New("unknown job type")
)

// healthCheckPoint is off Datça, inside the bundled coastal dataset.
var healthCheckPoint = geo.Coordinate{Lat: 36.7230, Lon: 27.6870}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// RefreshMessage is a job message.
type RefreshMessage struct {
	JobType string `json:"job_type"`

	// Invalidate drops cached forecasts before a weather refresh.
	Invalidate bool `json:"invalidate,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// NewJobHandler creates a handler without a subscription, for driving jobs
// directly (HTTP triggers, tests).
func NewJobHandler(job *RefreshJob, logger zerolog.Logger) *PubSubHandler {
	return &PubSubHandler{refreshJob: job, logger: logger}
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	err := h.Handle(ctx, msg.Data)
	switch {
	case errors.Is(err, ErrUnknownJob):
		logger.Warn().Err(err).Msg("ignoring message")
		msg.Ack() // Ack unknown messages to prevent redelivery
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	default:
		logger.Info().
			Dur("duration", time.Since(startTime)).
			Msg("job completed successfully")
		msg.Ack()
	}
}

// Handle runs the job described by data.
func (h *PubSubHandler) Handle(ctx context.Context, data []byte) error {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case JobWeatherRefresh:
		return h.handleWeatherRefresh(ctx, msg)
	case JobHealthCheck:
		return h.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
	}
}

func (h *PubSubHandler) handleWeatherRefresh(ctx context.Context, msg RefreshMessage) error {
	h.logger.Info().
		Bool("invalidate", msg.Invalidate).
		Msg("starting weather refresh")

	if msg.Invalidate {
		h.refreshJob.InvalidateCache()
	}

	result := h.refreshJob.Run(ctx)

	// Consider it successful if at least half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalPoints)
	}
	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	healthCheckJob := NewRefreshJob(RefreshJobConfig{
		Config: RefreshConfig{
			Targets: []RefreshTarget{
				{Name: "health-check", Priority: 1, Points: []geo.Coordinate{healthCheckPoint}},
			},
			Concurrency:  1,
			Timeout:      10 * time.Second,
			HorizonHours: []int{0},
		},
		Logger:         h.logger,
		WeatherService: h.refreshJob.weather,
		Now:            h.refreshJob.now,
	})

	result := healthCheckJob.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %s", result.Errors[0].Error)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
