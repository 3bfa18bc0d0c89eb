package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteRequestStatus defines lifecycle states for a community quote request.
type QuoteRequestStatus string

const (
	// QuoteRequestStatusOpen accepts quotes and votes.
	QuoteRequestStatusOpen QuoteRequestStatus = "open"
	// QuoteRequestStatusClosed is terminal; a provider has been selected.
	QuoteRequestStatusClosed QuoteRequestStatus = "closed"
)

// QuoteRequest asks providers to quote an installation for a community.
type QuoteRequest struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	CommunityID uint               `gorm:"not null;index" json:"community_id"`
	Community   *Community         `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	RequestedBy uint               `gorm:"not null" json:"requested_by"`
	Status      QuoteRequestStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	ClosedAt    *time.Time         `json:"closed_at"`
}

// TableName specifies the table name for GORM.
func (QuoteRequest) TableName() string {
	return "quote_requests"
}

// IsOpen reports whether the request still accepts quotes and votes.
func (r *QuoteRequest) IsOpen() bool {
	return r.Status == QuoteRequestStatusOpen
}

// QuoteDetails is the structured part of a provider quote.
type QuoteDetails struct {
	SystemSizeKW                 float64 `json:"system_size_kw"`
	PanelCount                   int     `json:"panel_count"`
	PanelType                    string  `json:"panel_type"`
	InverterType                 string  `json:"inverter_type"`
	WarrantyYears                int     `json:"warranty_years"`
	EstimatedAnnualProductionKWh float64 `json:"estimated_annual_production_kwh"`
	InstallationTimeframe        string  `json:"installation_timeframe"`
}

// ProviderQuote is a provider's offer for a quote request.
type ProviderQuote struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	QuoteRequestID uint            `gorm:"not null;uniqueIndex:idx_provider_quotes_request_provider" json:"quote_request_id"`
	ProviderID     uint            `gorm:"not null;uniqueIndex:idx_provider_quotes_request_provider" json:"provider_id"`
	Provider       *Profile        `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	TotalCost      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_cost"`
	Details        QuoteDetails    `gorm:"type:jsonb;serializer:json;not null" json:"details"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ProviderQuote) TableName() string {
	return "provider_quotes"
}

// Vote is a member's choice among the quotes of one request.
type Vote struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	QuoteRequestID  uint      `gorm:"not null;uniqueIndex:idx_votes_request_voter" json:"quote_request_id"`
	ProviderQuoteID uint      `gorm:"not null;index" json:"provider_quote_id"`
	VoterID         uint      `gorm:"not null;uniqueIndex:idx_votes_request_voter" json:"voter_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Vote) TableName() string {
	return "votes"
}

// QuoteVoteCount is one row of the per-quote vote aggregate.
type QuoteVoteCount struct {
	ProviderQuoteID uint  `json:"provider_quote_id"`
	Votes           int64 `json:"votes"`
}

// SelectedProvider records the outcome of closing a vote.
type SelectedProvider struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	QuoteRequestID  uint      `gorm:"not null;uniqueIndex" json:"quote_request_id"`
	ProviderQuoteID uint      `gorm:"not null" json:"provider_quote_id"`
	ProviderID      uint      `gorm:"not null" json:"provider_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (SelectedProvider) TableName() string {
	return "selected_providers"
}
