package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"salesintel/handlers"
	"salesintel/middleware"
	"salesintel/models"
	"salesintel/telemetry"
)

// Options toggles optional parts of the route table.
type Options struct {
	// AuthEnabled guards /api/v1 with bearer JWTs.
	AuthEnabled bool
}

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, opts Options) {
	app.Use(middleware.RequestID, middleware.Observe)

	app.Get("/healthz", handlers.HandleHealthz)
	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	var guards []fiber.Handler
	if opts.AuthEnabled {
		guards = append(guards, middleware.JWTMiddleware)
	}
	api := app.Group("/api/v1", guards...)

	// --- Insights Routes ---
	ins := api.Group("/insights")
	ins.Post("/query", handlers.HandleQuery)
	ins.Get("/suggestions", handlers.HandleGetSuggestions)
	ins.Get("/metrics", handlers.HandleGetMetrics)
	ins.Get("/risk", handlers.HandleGetRisk)
	ins.Get("/health", handlers.HandleGetHealth)
	ins.Get("/charts/:intent", handlers.HandleGetCharts)

	// Deal-level export is limited to analysts when auth is on.
	if opts.AuthEnabled {
		ins.Get("/export/risk.parquet", middleware.CheckRole(models.RoleAdmin, models.RoleAnalyst), handlers.HandleExportRisk)
	} else {
		ins.Get("/export/risk.parquet", handlers.HandleExportRisk)
	}
}
