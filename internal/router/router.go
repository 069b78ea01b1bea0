package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-overview-api/internal/config"
	"github.com/noah-isme/gema-overview-api/internal/handler"
	"github.com/noah-isme/gema-overview-api/internal/middleware"
	"github.com/noah-isme/gema-overview-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	OverviewHandler   *handler.OverviewHandler
	ForumHandler      *handler.ForumHandler
	H5PHandler        *handler.H5PHandler
	AdminCacheHandler *handler.AdminCacheHandler
	HealthProbes      map[string]handler.Probe
	AuthMiddleware    fiber.Handler
	WriteLimiter      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	v1.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	auth := deps.AuthMiddleware
	if auth == nil {
		auth = func(c *fiber.Ctx) error { return c.Next() }
	}
	limiter := deps.WriteLimiter
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api/v2", auth, middleware.RequireUser())

	if deps.OverviewHandler != nil {
		deps.OverviewHandler.Register(api)
	}

	if deps.ForumHandler != nil {
		deps.ForumHandler.Register(api.Group("/forums", limiter))
	}

	if deps.H5PHandler != nil {
		deps.H5PHandler.Register(api.Group("/h5p", limiter))
	}

	if deps.AdminCacheHandler != nil {
		admin := api.Group("/admin", middleware.RequireSiteRole(middleware.SiteRoleAdmin))
		deps.AdminCacheHandler.Register(admin)
	}
}
