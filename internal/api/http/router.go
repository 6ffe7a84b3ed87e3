package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/doc-portal/internal/api/http/handlers"
	"github.com/spec-kit/doc-portal/internal/edge"
	"github.com/spec-kit/doc-portal/internal/guard"
	"github.com/spec-kit/doc-portal/internal/observability"
	"github.com/spec-kit/doc-portal/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Documents  *handlers.DocumentsHandler
	Shared     *handlers.SharedHandler
	Audit      *handlers.AuditHandler
	Sessions   *handlers.Sessions
	Metrics    *observability.Metrics
	CookieName string
}

// RegisterRoutes wires HTTP routes. The edge filter sees every request first; page routes
// then get a per-request session, and protected ones resolve it and pass the route guard.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(edge.Middleware(cfg.CookieName, cfg.Metrics))

	public := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.Sessions.Attach, h}
	}
	resolved := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.Sessions.Attach, cfg.Sessions.Resolve, h}
	}
	protected := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.Sessions.Attach, cfg.Sessions.Resolve, guard.Middleware(handlers.View, session.LoginPath), h}
	}

	app.Get("/", public(cfg.Auth.Home)...)
	app.Get("/login", public(cfg.Auth.LoginPage)...)
	app.Get("/register", public(cfg.Auth.RegisterPage)...)
	app.Post("/login", public(cfg.Auth.Login)...)
	app.Post("/register", public(cfg.Auth.Register)...)
	app.Post("/logout", resolved(cfg.Auth.Logout)...)

	app.Get("/dashboard", protected(cfg.Documents.Dashboard)...)
	app.Get("/settings", protected(cfg.Auth.Settings)...)

	app.Post("/documents", protected(cfg.Documents.Upload)...)
	app.Get("/documents/:id", protected(cfg.Documents.Get)...)
	app.Post("/documents/:id/delete", protected(cfg.Documents.Delete)...)
	app.Get("/documents/:id/download", protected(cfg.Documents.Download)...)
	app.Get("/documents/:id/preview", protected(cfg.Documents.Preview)...)
	app.Get("/documents/:id/share", protected(cfg.Documents.ShareLinks)...)
	app.Post("/documents/:id/share", protected(cfg.Documents.CreateShareLink)...)
	app.Post("/share-links/:id/delete", protected(cfg.Documents.DeleteShareLink)...)

	app.Get("/admin/audit-logs", protected(cfg.Audit.List)...)

	app.Get("/shared/:token", cfg.Shared.Show)
	app.Get("/shared/:token/download", cfg.Shared.Download)
	app.Get("/shared/:token/preview", cfg.Shared.Preview)
}
