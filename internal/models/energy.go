package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnergyConsumption is one bi-monthly electricity bill submitted by a member.
type EnergyConsumption struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index:idx_energy_user_community" json:"user_id"`
	CommunityID   uint            `gorm:"not null;index:idx_energy_user_community" json:"community_id"`
	Period        string          `gorm:"size:16;not null" json:"period"`
	PeriodStart   time.Time       `gorm:"type:date;not null" json:"period_start"`
	UnitsConsumed float64         `gorm:"not null" json:"units_consumed"`
	BillAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"bill_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (EnergyConsumption) TableName() string {
	return "energy_consumption"
}
