package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func tariffMigrations() []Migration {
	return []Migration{
		{
			Version:    1,
			Name:       "tariffs",
			UpScript:   "CREATE TABLE tariffs (id INTEGER PRIMARY KEY, zip_code TEXT NOT NULL, rate_per_kwh NUMERIC NOT NULL);",
			DownScript: "DROP TABLE tariffs;",
		},
		{
			Version:    2,
			Name:       "tariff_zip_index",
			UpScript:   "CREATE INDEX idx_tariffs_zip ON tariffs (zip_code);",
			DownScript: "DROP INDEX idx_tariffs_zip;",
		},
	}
}

func newMigratorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestMigrator_UpAppliesPendingOnce(t *testing.T) {
	ctx := context.Background()
	db := newMigratorDB(t)
	mg := NewMigrator(db, tariffMigrations())

	pending, err := mg.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "a fresh database has everything pending")

	n, err := mg.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("tariffs"))

	applied, err := mg.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "tariffs", applied[0].Name)
	assert.Equal(t, checksum(tariffMigrations()[0].UpScript), applied[0].Checksum)
	assert.False(t, applied[1].AppliedAt.IsZero())

	n, err = mg.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrator_NewMigrationIsPending(t *testing.T) {
	ctx := context.Background()
	db := newMigratorDB(t)
	_, err := NewMigrator(db, tariffMigrations()[:1]).Up(ctx)
	require.NoError(t, err)

	pending, err := NewMigrator(db, tariffMigrations()).Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "000002_tariff_zip_index", pending[0].String())
}

func TestMigrator_RejectsEditedMigration(t *testing.T) {
	ctx := context.Background()
	db := newMigratorDB(t)
	_, err := NewMigrator(db, tariffMigrations()).Up(ctx)
	require.NoError(t, err)

	edited := tariffMigrations()
	edited[0].UpScript = "CREATE TABLE tariffs (id INTEGER PRIMARY KEY);"
	_, err = NewMigrator(db, edited).Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000001_tariffs was edited")
}

func TestMigrator_RejectsUnknownAppliedVersion(t *testing.T) {
	ctx := context.Background()
	db := newMigratorDB(t)
	_, err := NewMigrator(db, tariffMigrations()).Up(ctx)
	require.NoError(t, err)

	_, err = NewMigrator(db, tariffMigrations()[:1]).Pending(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000002")
}

func TestMigrator_FailedUpLeavesNoHistory(t *testing.T) {
	ctx := context.Background()
	db := newMigratorDB(t)
	broken := tariffMigrations()
	broken[1].UpScript = "CREATE INDEX idx_bad ON missing_table (zip_code);"

	n, err := NewMigrator(db, broken).Up(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, n)

	applied, err := NewMigrator(db, broken).Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, 1, applied[0].Version)
}

func TestMigrator_DownOnlyLatest(t *testing.T) {
	ctx := context.Background()
	db := newMigratorDB(t)
	mg := NewMigrator(db, tariffMigrations())
	_, err := mg.Up(ctx)
	require.NoError(t, err)

	err = mg.Down(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roll back 000002_tariff_zip_index first")

	require.NoError(t, mg.Down(ctx, 2))
	require.NoError(t, mg.Down(ctx, 1))
	assert.False(t, db.Migrator().HasTable("tariffs"))

	applied, err := mg.Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	err = mg.Down(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been applied")
	assert.Error(t, mg.Down(ctx, 42))
}
