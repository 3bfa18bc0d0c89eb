package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"solarshare/internal/config"
	"solarshare/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus describes what ApplySchema would do and which migrations are pending.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	Applied            []SchemaMigration
	PendingMigrations  []Migration
}

func isProdLikeEnv(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	return e == "production" || e == "prod" || e == "staging" || e == "stage"
}

func normalizedSchemaMode(cfg *config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeHybrid
	}
	return mode
}

func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	mode := normalizedSchemaMode(cfg)
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return true, false, nil
	case SchemaModeAuto:
		if prodLike {
			return false, false, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		return false, true, nil
	case SchemaModeHybrid:
		return true, !prodLike, nil
	default:
		return false, false, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// memberCountViewSQL is portable between PostgreSQL and SQLite.
const memberCountViewSQL = `SELECT community_id, COUNT(*) AS member_count FROM community_members GROUP BY community_id`

// partialIndexes are the indexes GORM tags cannot express. Both dialects accept them.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_quote_requests_one_open ON quote_requests (community_id) WHERE status = 'open'`,
}

// EnsureViews creates the views and partial indexes GORM cannot migrate.
func EnsureViews(db *gorm.DB) error {
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create partial index: %w", err)
		}
	}

	stmt := "CREATE OR REPLACE VIEW community_member_counts AS " + memberCountViewSQL
	if db.Dialector.Name() == "sqlite" {
		stmt = "CREATE VIEW IF NOT EXISTS community_member_counts AS " + memberCountViewSQL
	}
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create community_member_counts view: %w", err)
	}
	return nil
}

// AutoMigrate runs GORM AutoMigrate for every persistent model and then creates the views.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return err
	}
	return EnsureViews(db)
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}

	if runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if runAuto {
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", normalizedSchemaMode(cfg)), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return nil
}

// GetSchemaStatus reports the schema policy and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               normalizedSchemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}

	if !runSQL {
		return status, nil
	}

	mg := NewMigrator(db, GetMigrations())
	if status.Applied, err = mg.Applied(ctx); err != nil {
		return nil, err
	}
	if status.PendingMigrations, err = mg.Pending(ctx); err != nil {
		return nil, err
	}

	return status, nil
}
