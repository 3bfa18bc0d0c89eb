package repository

import (
	"testing"
	"time"

	"solarshare/internal/database"
	"solarshare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, email string, provider bool) *models.Profile {
	t.Helper()
	now := time.Now()
	p := &models.Profile{Email: email, PasswordHash: "hash", Name: email, IsSolarProvider: provider, EmailConfirmedAt: &now}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedCommunity(t *testing.T, db *gorm.DB, admin *models.Profile, code string, members ...*models.Profile) *models.Community {
	t.Helper()
	c := &models.Community{Name: "Community " + code, ZipCode: "600001", AdminID: admin.ID, CommunityCode: code}
	require.NoError(t, db.Omit("Admin").Create(c).Error)
	for _, m := range append([]*models.Profile{admin}, members...) {
		require.NoError(t, db.Omit("Community", "User").Create(&models.CommunityMember{CommunityID: c.ID, UserID: m.ID}).Error)
	}
	return c
}

func seedRequest(t *testing.T, db *gorm.DB, community *models.Community) *models.QuoteRequest {
	t.Helper()
	req := &models.QuoteRequest{CommunityID: community.ID, RequestedBy: community.AdminID, Status: models.QuoteRequestStatusOpen}
	require.NoError(t, db.Omit("Community").Create(req).Error)
	return req
}

func seedQuote(t *testing.T, db *gorm.DB, req *models.QuoteRequest, provider *models.Profile, cost string) *models.ProviderQuote {
	t.Helper()
	q := &models.ProviderQuote{
		QuoteRequestID: req.ID,
		ProviderID:     provider.ID,
		TotalCost:      decimal.RequireFromString(cost),
		Details:        models.QuoteDetails{SystemSizeKW: 10, PanelCount: 24, WarrantyYears: 25},
	}
	require.NoError(t, db.Omit("Provider").Create(q).Error)
	return q
}
