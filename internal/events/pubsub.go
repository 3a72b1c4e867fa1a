package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubConfig holds configuration for the Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID string
	Topic     string
	Logger    zerolog.Logger
}

// PubSubPublisher publishes events to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    zerolog.Logger
}

// NewPubSubPublisher connects to Pub/Sub.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
		logger:    cfg.Logger,
	}, nil
}

// Publish sends the event and waits for the server acknowledgement.
// The event type is also set as a message attribute for subscription filters.
func (p *PubSubPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": e.Type,
			"user_id":    e.UserID,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	p.logger.Debug().
		Str("message_id", id).
		Str("event_type", e.Type).
		Str("calculation_id", e.CalculationID).
		Msg("event published")
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

var _ Publisher = (*PubSubPublisher)(nil)
