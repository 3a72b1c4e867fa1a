package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/events"
)

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Job              *TipsJob
	Logger           zerolog.Logger
}

// PubSubHandler feeds calculation events from a subscription to the tips job.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	job              *TipsJob
	logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		job:              cfg.Job,
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if Process(ctx, h.job, msg.Data, logger) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Process handles one message body and reports whether it should be acked.
// Malformed and unknown messages are acked so they are not redelivered forever.
func Process(ctx context.Context, job *TipsJob, data []byte, logger zerolog.Logger) bool {
	start := time.Now()

	e, err := events.Decode(data)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return true
	}

	logger = logger.With().
		Str("event_type", e.Type).
		Str("calculation_id", e.CalculationID).
		Logger()

	if err := job.Handle(ctx, e); err != nil {
		if errors.Is(err, ErrUnknownEventType) {
			logger.Warn().Msg("unknown event type")
			return true
		}
		logger.Error().Err(err).Msg("job failed")
		return false
	}

	logger.Info().
		Dur("duration", time.Since(start)).
		Msg("job completed successfully")
	return true
}
