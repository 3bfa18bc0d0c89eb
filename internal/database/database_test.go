package database

import (
	"testing"

	"solarshare/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "primary", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "solarshare",
		DBReadHost: "replica", DBReadPort: "6432", DBReadUser: "ru", DBReadPassword: "rp",
	}
	assert.Equal(t, "host=primary port=5432 user=u password=p dbname=solarshare sslmode=disable", DSN(cfg, false))
	assert.Equal(t, "host=replica port=6432 user=ru password=rp dbname=solarshare sslmode=disable", DSN(cfg, true))
}

func TestGetReadDBFallsBack(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.Same(t, db, GetReadDB(db))
}

func TestRegisteredMigrations(t *testing.T) {
	ms := GetMigrations()
	require.GreaterOrEqual(t, len(ms), 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "000001_init_solarshare", ms[0].String())
	assert.Contains(t, ms[0].UpScript, "community_member_counts")
	assert.NotNil(t, GetMigrationByVersion(2))
	assert.Nil(t, GetMigrationByVersion(99))
}
