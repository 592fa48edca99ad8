package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

// TopicPublisher publishes through a Pub/Sub publisher and waits for the
// server acknowledgement.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher wraps the publisher for topic on client.
func NewTopicPublisher(client *pubsub.Client, topic string) *TopicPublisher {
	return &TopicPublisher{publisher: client.Publisher(topic)}
}

// Publish publishes and blocks until the server accepts the message.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	res := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}

// Stop flushes pending messages.
func (p *TopicPublisher) Stop() {
	p.publisher.Stop()
}

// PubSubSink forwards events as JSON to a Pub/Sub topic for push delivery.
type PubSubSink struct {
	publisher Publisher
	vesselID  string
	timeout   time.Duration
	logger    zerolog.Logger
}

// PubSubSinkConfig holds configuration for the Pub/Sub sink.
type PubSubSinkConfig struct {
	Publisher Publisher
	// VesselID is attached to every message so the push service can route it.
	VesselID string
	// Timeout bounds a single publish (default: 5 seconds).
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewPubSubSink creates a Pub/Sub backed sink.
func NewPubSubSink(cfg PubSubSinkConfig) *PubSubSink {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &PubSubSink{
		publisher: cfg.Publisher,
		vesselID:  cfg.VesselID,
		timeout:   timeout,
		logger:    cfg.Logger,
	}
}

// SendArrival publishes the arrival.
func (s *PubSubSink) SendArrival(ctx context.Context, a Arrival) error {
	return s.publish(ctx, KindArrival, a)
}

// SendDragAlarm publishes the alarm with high priority.
func (s *PubSubSink) SendDragAlarm(ctx context.Context, d DragAlarm) error {
	return s.publish(ctx, KindDragAlarm, d)
}

func (s *PubSubSink) publish(ctx context.Context, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}

	priority := "normal"
	if kind == KindDragAlarm {
		priority = "high"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.publisher.Publish(ctx, data, map[string]string{
		"kind":      kind,
		"vessel_id": s.vesselID,
		"priority":  priority,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to publish notification")
		return err
	}
	return nil
}
