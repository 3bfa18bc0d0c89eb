package server

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// Page is a client-visible route of the web app.
type Page struct {
	Path         string `json:"path"`
	Name         string `json:"page"`
	Title        string `json:"title"`
	RequiresAuth bool   `json:"requires_auth"`
	ProviderOnly bool   `json:"provider_only,omitempty"`
}

// Pages lists every route the web client renders.
var Pages = []Page{
	{Path: "/", Name: "home", Title: "SolarShare"},
	{Path: "/login", Name: "login", Title: "Sign in"},
	{Path: "/register", Name: "register", Title: "Create an account"},
	{Path: "/about", Name: "about", Title: "About"},
	{Path: "/how-it-works", Name: "how_it_works", Title: "How it works"},
	{Path: "/dashboard", Name: "dashboard", Title: "Dashboard", RequiresAuth: true},
	{Path: "/provider/dashboard", Name: "provider_dashboard", Title: "Provider dashboard", RequiresAuth: true, ProviderOnly: true},
	{Path: "/communities/create", Name: "create_community", Title: "Create a community", RequiresAuth: true},
	{Path: "/communities/join", Name: "join_community", Title: "Join a community", RequiresAuth: true},
	{Path: "/communities/voting/:id", Name: "community_voting", Title: "Community voting", RequiresAuth: true},
	{Path: "/energy/input", Name: "energy_input", Title: "Energy data", RequiresAuth: true},
	{Path: "/energy/consumption", Name: "energy_consumption", Title: "Energy consumption", RequiresAuth: true},
	{Path: "/installation/tracking", Name: "installation_tracking", Title: "Installation tracking", RequiresAuth: true},
}

// SetupPages serves the client routes. With STATIC_DIR set every page gets
// the SPA shell; otherwise a JSON descriptor of the page. Unknown paths get
// the not-found page.
func (s *Server) SetupPages(app *fiber.App) {
	staticDir := s.config.StaticDir
	for _, p := range Pages {
		page := p
		app.Get(page.Path, func(c *fiber.Ctx) error {
			if staticDir != "" {
				return c.SendFile(filepath.Join(staticDir, "index.html"))
			}
			desc := fiber.Map{
				"page":          page.Name,
				"title":         page.Title,
				"requires_auth": page.RequiresAuth,
			}
			if page.ProviderOnly {
				desc["provider_only"] = true
			}
			if len(c.Route().Params) > 0 {
				params := fiber.Map{}
				for _, name := range c.Route().Params {
					params[name] = c.Params(name)
				}
				desc["params"] = params
			}
			return c.JSON(desc)
		})
	}

	if staticDir != "" {
		app.Static("/", staticDir)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"page":  "not_found",
			"title": "Page not found",
			"path":  c.Path(),
		})
	})
}
