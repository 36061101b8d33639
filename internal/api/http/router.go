package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/api/http/handlers"
	"github.com/spec-kit/support-insights/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Sync       *handlers.SyncHandler
	Insights   *handlers.InsightsHandler
	Metrics    *handlers.MetricsHandler
	CronSecret *auth.CronSecret
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	api := app.Group("/api")
	api.Post("/sync", cfg.CronSecret.Handle, cfg.Sync.Trigger)
	api.Get("/sync/runs", cfg.Sync.ListRuns)
	api.Get("/act-now", cfg.Insights.ActNow)
	api.Get("/issues/:id/messages", cfg.Insights.IssueMessages)
}
