package repository

import (
	"context"

	"solarshare/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// energyBatchSize bounds rows per INSERT statement.
const energyBatchSize = 100

// CommunityEnergyStats aggregates the consumption submitted to one community.
type CommunityEnergyStats struct {
	CommunityID      uint            `json:"community_id"`
	TotalUnits       float64         `json:"total_consumption_kwh"`
	AverageBill      decimal.Decimal `json:"average_bill"`
	EntryCount       int64           `json:"entry_count"`
	ContributorCount int64           `json:"contributor_count"`
}

// EnergyRepository defines persistence operations for consumption entries.
type EnergyRepository interface {
	CreateBatch(ctx context.Context, entries []models.EnergyConsumption) error
	ListForUser(ctx context.Context, userID, communityID uint) ([]models.EnergyConsumption, error)
	CountForUser(ctx context.Context, userID uint) (int64, error)
	CommunityStats(ctx context.Context, communityIDs []uint) (map[uint]CommunityEnergyStats, error)
}

type energyRepository struct {
	db *gorm.DB
}

// NewEnergyRepository returns a new EnergyRepository implementation.
func NewEnergyRepository(db *gorm.DB) EnergyRepository {
	return &energyRepository{db: db}
}

// CreateBatch writes all entries in one batched insert.
func (r *energyRepository) CreateBatch(ctx context.Context, entries []models.EnergyConsumption) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&entries, energyBatchSize).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListForUser returns the user's entries for a community, newest period first.
func (r *energyRepository) ListForUser(ctx context.Context, userID, communityID uint) ([]models.EnergyConsumption, error) {
	var entries []models.EnergyConsumption
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Order("period_start DESC").Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *energyRepository) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.EnergyConsumption{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// CommunityStats sums consumption per community for the provider dashboard.
func (r *energyRepository) CommunityStats(ctx context.Context, communityIDs []uint) (map[uint]CommunityEnergyStats, error) {
	out := make(map[uint]CommunityEnergyStats, len(communityIDs))
	if len(communityIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		CommunityID      uint
		TotalUnits       float64
		TotalBill        decimal.Decimal
		EntryCount       int64
		ContributorCount int64
	}
	err := readDB(r.db).WithContext(ctx).Model(&models.EnergyConsumption{}).
		Select("community_id, COALESCE(SUM(units_consumed), 0) AS total_units, COALESCE(SUM(bill_amount), 0) AS total_bill, COUNT(*) AS entry_count, COUNT(DISTINCT user_id) AS contributor_count").
		Where("community_id IN ?", communityIDs).
		Group("community_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	for _, row := range rows {
		stats := CommunityEnergyStats{
			CommunityID:      row.CommunityID,
			TotalUnits:       row.TotalUnits,
			EntryCount:       row.EntryCount,
			ContributorCount: row.ContributorCount,
			AverageBill:      decimal.Zero,
		}
		if row.EntryCount > 0 {
			stats.AverageBill = row.TotalBill.Div(decimal.NewFromInt(row.EntryCount)).Round(2)
		}
		out[row.CommunityID] = stats
	}
	return out, nil
}
