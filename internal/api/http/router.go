package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-dashboard/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Dashboard *handlers.DashboardHandler
	Import    *handlers.ImportHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Health)

	api.Get("/sla-metrics", cfg.Dashboard.SLAMetrics)
	api.Get("/customer-segments", cfg.Dashboard.CustomerSegments)
	api.Get("/outages", cfg.Dashboard.Outages)
	api.Get("/executive-summary", cfg.Dashboard.ExecutiveSummary)
	api.Get("/trends", cfg.Dashboard.Trends)
	api.Get("/tickets", cfg.Dashboard.Tickets)
	api.Get("/sla-definitions", cfg.Dashboard.SLADefinitions)
	api.Get("/customers", cfg.Dashboard.Customers)
	api.Get("/performance-metrics", cfg.Dashboard.PerformanceMetrics)

	api.Post("/import/helpdesk", cfg.Import.ImportHelpdesk)
}
