package models

import "time"

// OutboxStatus tracks delivery of an outbox event.
type OutboxStatus int8

const (
	OutboxStatusPending OutboxStatus = 0
	OutboxStatusSent    OutboxStatus = 1
	OutboxStatusFailed  OutboxStatus = 2
)

// Domain event types written to the outbox.
const (
	EventQuoteRequestClosed = "quote_request.closed"
	EventProjectCreated     = "project.created"
	EventProjectProgressed  = "project.progressed"
)

// OutboxEvent is a domain event stored in the same transaction as the change
// that produced it and relayed asynchronously.
type OutboxEvent struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	EventType   string       `gorm:"size:64;not null" json:"event_type"`
	AggregateID uint         `gorm:"not null" json:"aggregate_id"`
	Payload     string       `gorm:"type:text;not null" json:"payload"`
	Status      OutboxStatus `gorm:"not null;default:0;index" json:"status"`
	Retry       int          `gorm:"not null;default:0" json:"retry"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// QuoteRequestClosedPayload is the body of a quote_request.closed event.
type QuoteRequestClosedPayload struct {
	QuoteRequestID  uint      `json:"quote_request_id"`
	CommunityID     uint      `json:"community_id"`
	ProviderQuoteID uint      `json:"provider_quote_id"`
	ProviderID      uint      `json:"provider_id"`
	ProjectID       uint      `json:"project_id"`
	ClosedAt        time.Time `json:"closed_at"`
}

// ProjectCreatedPayload is the body of a project.created event.
type ProjectCreatedPayload struct {
	ProjectID               uint      `json:"project_id"`
	CommunityID             uint      `json:"community_id"`
	ProviderID              uint      `json:"provider_id"`
	TotalCost               string    `json:"total_cost"`
	EstimatedCompletionDate time.Time `json:"estimated_completion_date"`
}

// ProjectProgressedPayload is the body of a project.progressed event.
type ProjectProgressedPayload struct {
	ProjectID          uint          `json:"project_id"`
	CommunityID        uint          `json:"community_id"`
	Status             ProjectStatus `json:"status"`
	ProgressPercentage int           `json:"progress_percentage"`
}
