package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solarshare/internal/models"

	"gorm.io/gorm"
)

// MaxOutboxRetry is the number of failed deliveries after which an event is parked.
const MaxOutboxRetry = 5

// OutboxRepository reads and acknowledges outbox events for the relayer.
type OutboxRepository interface {
	ListPending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint) error
}

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository returns a new OutboxRepository implementation.
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// ListPending returns unsent events that still have retries left, oldest first.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status <> ? AND retry < ?", models.OutboxStatusSent, MaxOutboxRetry).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]any{"status": models.OutboxStatusSent, "updated_at": time.Now()}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.OutboxStatusFailed,
			"retry":      gorm.Expr("retry + 1"),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// appendOutbox writes an event inside the caller's transaction.
func appendOutbox(tx *gorm.DB, eventType string, aggregateID uint, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	event := models.OutboxEvent{
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(body),
		Status:      models.OutboxStatusPending,
	}
	return tx.Create(&event).Error
}
