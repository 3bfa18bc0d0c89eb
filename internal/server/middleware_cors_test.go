package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"solarshare/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCORSApp(allowedOrigins string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: allowedOrigins}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/api/energy/periods", func(c *fiber.Ctx) error { return c.JSON([]string{"Jan-Feb 2024"}) })
	app.Post("/api/quote-requests/:id/votes", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/ws/voting/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusUpgradeRequired) })
	return app
}

func preflight(t *testing.T, app *fiber.App, origin, path, method, headers string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	req.Header.Set("Access-Control-Request-Headers", headers)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCORS_DefaultOriginsAllowVoting(t *testing.T) {
	app := newCORSApp("")

	for _, origin := range (&config.Config{}).AllowedOriginList() {
		resp := preflight(t, app, origin, "/api/quote-requests/3/votes", http.MethodPost, "authorization,content-type")
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, origin)
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPut)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	}
}

func TestCORS_WebSocketUpgradeHeadersAllowed(t *testing.T) {
	app := newCORSApp("")

	resp := preflight(t, app, "http://localhost:5173", "/api/ws/voting/3", http.MethodGet,
		"upgrade,connection,sec-websocket-key,sec-websocket-version")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	allowed := resp.Header.Get("Access-Control-Allow-Headers")
	for _, h := range []string{"Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version"} {
		assert.Contains(t, allowed, h)
	}
}

func TestCORS_ConfiguredOriginsReplaceDefaults(t *testing.T) {
	app := newCORSApp(" https://solar.example.com , ")

	resp := preflight(t, app, "https://solar.example.com", "/api/quote-requests/3/votes", http.MethodPost, "authorization")
	assert.Equal(t, "https://solar.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight(t, app, "http://localhost:5173", "/api/quote-requests/3/votes", http.MethodPost, "authorization")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"), "dev origins are not allowed once ALLOWED_ORIGINS is set")
}

func TestCORS_ExposesTraceHeader(t *testing.T) {
	app := newCORSApp("")

	req := httptest.NewRequest(http.MethodGet, "/api/energy/periods", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "X-Trace-ID")
}

func TestCORS_PreflightsNeverRateLimited(t *testing.T) {
	app := newCORSApp("")

	// More preflights than the global limiter allows per minute.
	for i := 0; i < 120; i++ {
		req := httptest.NewRequest(http.MethodOptions, "/api/quote-requests/3/votes", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode, "preflight %d", i)
		_ = resp.Body.Close()
	}

	vote := httptest.NewRequest(http.MethodPost, "/api/quote-requests/3/votes", nil)
	vote.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(vote, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
