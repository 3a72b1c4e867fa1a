// Package events publishes calculation lifecycle events to the worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Event types.
const (
	TypeCalculationSaved   = "calculation.saved"
	TypeCalculationDeleted = "calculation.deleted"
)

// Event is the message body published for calculation changes.
type Event struct {
	Type          string    `json:"event_type"`
	CalculationID string    `json:"calculation_id"`
	UserID        string    `json:"user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Decode parses a message body.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that writes events to logger.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Debug().
		Str("event_type", e.Type).
		Str("calculation_id", e.CalculationID).
		Msg("event not delivered, no broker configured")
	return nil
}

var _ Publisher = (*LogPublisher)(nil)
