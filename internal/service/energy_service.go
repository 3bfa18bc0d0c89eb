package service

import (
	"context"
	"fmt"
	"time"

	"solarshare/internal/models"
	"solarshare/internal/observability"
	"solarshare/internal/repository"
	"solarshare/internal/validation"

	"github.com/shopspring/decimal"
)

// EnergyService accepts bi-monthly consumption data from members.
type EnergyService struct {
	energy      repository.EnergyRepository
	communities repository.CommunityRepository
	now         func() time.Time
}

// EnergyEntryInput is one row of the intake form.
type EnergyEntryInput struct {
	Period        string          `json:"period"`
	UnitsConsumed float64         `json:"units_consumed"`
	BillAmount    decimal.Decimal `json:"bill_amount"`
}

// NewEnergyService wires the intake service.
func NewEnergyService(energy repository.EnergyRepository, communities repository.CommunityRepository) *EnergyService {
	return &EnergyService{energy: energy, communities: communities, now: time.Now}
}

// BillingPeriods lists the latest n period labels, oldest first.
func (s *EnergyService) BillingPeriods(n int) []string {
	return validation.BillingPeriods(s.now(), n)
}

// SubmitEntries validates the whole batch and stores it in one write.
// Nothing is stored when any entry is invalid.
func (s *EnergyService) SubmitEntries(ctx context.Context, userID, communityID uint, entries []EnergyEntryInput) ([]models.EnergyConsumption, error) {
	if len(entries) < validation.MinEnergyEntries {
		return nil, models.NewValidationError(fmt.Sprintf("Please provide at least %d billing periods", validation.MinEnergyEntries))
	}
	if err := requireMember(ctx, s.communities, communityID, userID); err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(entries))
	rows := make([]models.EnergyConsumption, 0, len(entries))
	for i, e := range entries {
		period, err := validation.ParseBillingPeriod(e.Period)
		if err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("Entry %d: %v", i+1, err))
		}
		label := period.Label()
		if first, dup := seen[label]; dup {
			return nil, models.NewValidationError(fmt.Sprintf("Entry %d repeats billing period %s from entry %d", i+1, label, first+1))
		}
		seen[label] = i
		if e.UnitsConsumed <= 0 {
			return nil, models.NewValidationError(fmt.Sprintf("Entry %d: units consumed must be greater than 0", i+1))
		}
		bill := e.BillAmount.Round(2)
		if !bill.IsPositive() {
			return nil, models.NewValidationError(fmt.Sprintf("Entry %d: bill amount must be at least 0.01", i+1))
		}
		rows = append(rows, models.EnergyConsumption{
			UserID:        userID,
			CommunityID:   communityID,
			Period:        label,
			PeriodStart:   period.Start(),
			UnitsConsumed: e.UnitsConsumed,
			BillAmount:    bill,
		})
	}

	if err := s.energy.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	observability.EnergyEntriesSubmitted.Add(float64(len(rows)))
	return rows, nil
}
