package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the installation stage of a project.
type ProjectStatus string

const (
	ProjectStatusPlanning     ProjectStatus = "planning"
	ProjectStatusProcurement  ProjectStatus = "procurement"
	ProjectStatusInstallation ProjectStatus = "installation"
	ProjectStatusCompleted    ProjectStatus = "completed"
)

var projectStatusOrder = map[ProjectStatus]int{
	ProjectStatusPlanning:     0,
	ProjectStatusProcurement:  1,
	ProjectStatusInstallation: 2,
	ProjectStatusCompleted:    3,
}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	_, ok := projectStatusOrder[s]
	return ok
}

// Rank orders statuses along the installation pipeline.
func (s ProjectStatus) Rank() int {
	if r, ok := projectStatusOrder[s]; ok {
		return r
	}
	return -1
}

// ProjectEstimatedDuration is added to the close time of a vote to estimate completion.
const ProjectEstimatedDuration = 90 * 24 * time.Hour

// Project is the installation created when a community closes its vote.
type Project struct {
	ID                      uint            `gorm:"primaryKey" json:"id"`
	CommunityID             uint            `gorm:"not null;index" json:"community_id"`
	ProviderID              uint            `gorm:"not null;index" json:"provider_id"`
	QuoteRequestID          uint            `gorm:"not null;uniqueIndex" json:"quote_request_id"`
	Status                  ProjectStatus   `gorm:"type:varchar(20);not null;default:'planning'" json:"status"`
	ProgressPercentage      int             `gorm:"not null;default:0" json:"progress_percentage"`
	TotalCost               decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_cost"`
	EstimatedCompletionDate *time.Time      `json:"estimated_completion_date"`
	CompletedAt             *time.Time      `json:"completed_at,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Project) TableName() string {
	return "projects"
}
