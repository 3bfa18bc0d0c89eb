package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"solarshare/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMigration records one applied SQL migration and the checksum of the
// up script that was run.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrator applies and rolls back a fixed, version-ordered migration set.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
	now        func() time.Time
}

// NewMigrator returns a Migrator over migrations, which must be sorted by version.
func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations, now: time.Now}
}

func checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// Applied lists applied migrations by version. A database that has never been
// migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]SchemaMigration, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaMigration{}) {
		return []SchemaMigration{}, nil
	}
	var rows []SchemaMigration
	if err := db.Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	return rows, nil
}

// Pending lists the migrations not yet applied. It fails when the applied
// history does not match the code: an unknown version, or an up script that
// changed after it ran.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[int]SchemaMigration, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}

	var pending []Migration
	for _, mig := range m.migrations {
		a, ok := byVersion[mig.Version]
		if !ok {
			pending = append(pending, mig)
			continue
		}
		if a.Checksum != checksum(mig.UpScript) {
			return nil, fmt.Errorf("migration %s was edited after it was applied; add a new migration instead", mig.String())
		}
		delete(byVersion, mig.Version)
	}
	for _, a := range applied {
		if _, unknown := byVersion[a.Version]; unknown {
			return nil, fmt.Errorf("schema_migrations has version %06d (%s) which this build does not know; run a newer solarctl or reset the development database", a.Version, a.Name)
		}
	}
	return pending, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return 0, fmt.Errorf("failed to ensure schema_migrations: %w", err)
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		middleware.Logger.Info("Applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", mig.String(), err)
			}
			return tx.Create(&SchemaMigration{
				Version:   mig.Version,
				Name:      mig.Name,
				Checksum:  checksum(mig.UpScript),
				AppliedAt: m.now().UTC(),
			}).Error
		})
		if err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// Down rolls back version, which must be the most recently applied migration.
// The down script and the history row are removed together.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			target = &m.migrations[i]
		}
	}
	if target == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return fmt.Errorf("migration %s has not been applied", target.String())
	}
	if latest := applied[len(applied)-1]; latest.Version != version {
		if version < latest.Version {
			return fmt.Errorf("migration %s is not the latest; roll back %06d_%s first", target.String(), latest.Version, latest.Name)
		}
		return fmt.Errorf("migration %s has not been applied", target.String())
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", target.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.DownScript).Error; err != nil {
			return fmt.Errorf("failed to roll back migration %s: %w", target.String(), err)
		}
		return tx.Delete(&SchemaMigration{}, "version = ?", version).Error
	})
}

// RunMigrations applies the embedded SolarShare migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	n, err := NewMigrator(db, GetMigrations()).Up(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		middleware.Logger.Info("Migrations applied", slog.Int("count", n))
	}
	return nil
}

// RollbackMigration rolls back the latest embedded migration, which must be version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, GetMigrations()).Down(ctx, version)
}
