package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"solarshare/internal/cache"
	"solarshare/internal/config"
	"solarshare/internal/database"
	"solarshare/internal/models"
	"solarshare/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations according to DB_SCHEMA_MODE.
	ApplySchema bool
	// SeedDemo fills an empty development database with demo communities.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis, applies the schema and optionally
// seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := seedDemo(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// seedDemo seeds only development databases that have no profiles yet.
func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if !strings.EqualFold(cfg.Env, "development") {
		log.Printf("demo seeding skipped in %s", cfg.Env)
		return nil
	}
	var profiles int64
	if err := db.WithContext(ctx).Model(&models.Profile{}).Count(&profiles).Error; err != nil {
		return err
	}
	if profiles > 0 {
		return nil
	}
	_, err := seed.Seed(ctx, db, seed.Options{})
	return err
}
