package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"solarshare/internal/config"
	"solarshare/internal/database"
	"solarshare/internal/middleware"
	"solarshare/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Env:                 "test",
		JWTSecret:           testSecret,
		JWTTTL:              time.Hour,
		FeatureFlags:        "live_tally=on,provider_community_stats=on",
		PublicBaseURL:       "http://localhost:5173",
		OutboxRelayInterval: time.Second,
		OutboxBatchSize:     10,
	}
}

// newTestEnv builds the full app on a private in-memory SQLite database.
func newTestEnv(t *testing.T, rdb *redis.Client, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return &testEnv{t: t, srv: srv, app: srv.newApp(), db: db}
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
func (e *testEnv) do(method, path, token string, body any, out any) int {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

// user creates a confirmed profile directly and returns it with a session token.
func (e *testEnv) user(name string, provider bool) (*models.Profile, string) {
	e.t.Helper()
	now := time.Now()
	p := &models.Profile{
		Email:            fmt.Sprintf("%s@example.com", name),
		PasswordHash:     "unused",
		Name:             name,
		IsSolarProvider:  provider,
		EmailConfirmedAt: &now,
	}
	require.NoError(e.t, e.db.Create(p).Error)
	tok, err := middleware.IssueToken(testSecret, middleware.TokenSubject{UserID: p.ID, Name: name, IsProvider: provider}, time.Hour, now)
	require.NoError(e.t, err)
	return p, tok.Token
}

func errorCode(t *testing.T, raw map[string]any) string {
	t.Helper()
	code, _ := raw["code"].(string)
	return code
}
