package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"solarshare/internal/models"

	"github.com/segmentio/kafka-go"
)

// Sender publishes one outbox event.
type Sender func(ctx context.Context, ev *models.OutboxEvent) error

// Envelope is the wire format of a published event.
type Envelope struct {
	ID          uint            `json:"id"`
	Type        string          `json:"type"`
	AggregateID uint            `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an outbox row. The payload must already be valid JSON.
func NewEnvelope(ev *models.OutboxEvent) (Envelope, error) {
	if !json.Valid([]byte(ev.Payload)) {
		return Envelope{}, fmt.Errorf("outbox event %d: payload is not valid JSON", ev.ID)
	}
	return Envelope{
		ID:          ev.ID,
		Type:        ev.EventType,
		AggregateID: ev.AggregateID,
		OccurredAt:  ev.CreatedAt.UTC(),
		Payload:     json.RawMessage(ev.Payload),
	}, nil
}

// KafkaSender publishes envelopes keyed by aggregate id.
func KafkaSender(p *KafkaProducer) Sender {
	return func(ctx context.Context, ev *models.OutboxEvent) error {
		env, err := NewEnvelope(ev)
		if err != nil {
			return err
		}
		body, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		return p.Send(ctx, KeyFromID(ev.AggregateID), body, kafka.Header{Key: "event_type", Value: []byte(ev.EventType)})
	}
}

// LogSender is used when no brokers are configured.
func LogSender(ctx context.Context, ev *models.OutboxEvent) error {
	slog.InfoContext(ctx, "outbox event",
		slog.Uint64("id", uint64(ev.ID)),
		slog.String("event_type", ev.EventType),
		slog.Uint64("aggregate_id", uint64(ev.AggregateID)),
		slog.String("payload", ev.Payload),
	)
	return nil
}
