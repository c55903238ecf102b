package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"salesintel/export"
	"salesintel/guardrails"
	"salesintel/insights"
	"salesintel/logger"
	"salesintel/models"
)

func handlerLog() *logger.Entry {
	return logger.GetLogger().WithComponent("handlers")
}

func sessionNotReady(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"success": false,
		"message": "Insights session is not ready",
	})
}

// HandleQuery answers a free-text executive question.
// POST /api/v1/insights/query
func HandleQuery(c *fiber.Ctx) error {
	var req models.InsightRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Query is required"})
	}

	engine := insights.Current()
	if engine == nil {
		return sessionNotReady(c)
	}

	resp, err := engine.Ask(c.UserContext(), req.Query)
	if errors.Is(err, models.ErrUnrecognizedIntent) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success":     false,
			"message":     "This question is outside the supported scope. Try one of the suggested questions.",
			"suggestions": guardrails.Suggestions(),
		})
	}
	if err != nil {
		handlerLog().WithError(err).Error("query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to answer query"})
	}

	return c.JSON(fiber.Map{"success": true, "data": resp})
}

// HandleGetSuggestions lists example questions that are in scope.
// GET /api/v1/insights/suggestions
func HandleGetSuggestions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": guardrails.Suggestions()})
}

// HandleGetMetrics returns the metrics bundle of the current session.
// GET /api/v1/insights/metrics
func HandleGetMetrics(c *fiber.Ctx) error {
	engine := insights.Current()
	if engine == nil {
		return sessionNotReady(c)
	}
	s := engine.Session()
	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": s.ID,
		"data":       s.Metrics,
	})
}

// HandleGetRisk returns the risk summary, and the scored deals when deals=true.
// GET /api/v1/insights/risk
func HandleGetRisk(c *fiber.Ctx) error {
	engine := insights.Current()
	if engine == nil {
		return sessionNotReady(c)
	}
	s := engine.Session()

	data := fiber.Map{"summary": s.Risk}
	if c.QueryBool("deals", false) {
		data["deals"] = s.Scored
	}
	return c.JSON(fiber.Map{"success": true, "session_id": s.ID, "data": data})
}

// HandleGetHealth returns the pipeline health score.
// GET /api/v1/insights/health
func HandleGetHealth(c *fiber.Ctx) error {
	engine := insights.Current()
	if engine == nil {
		return sessionNotReady(c)
	}
	s := engine.Session()
	return c.JSON(fiber.Map{"success": true, "session_id": s.ID, "data": s.Health})
}

// HandleGetCharts returns the chart data for one intent.
// GET /api/v1/insights/charts/:intent
func HandleGetCharts(c *fiber.Ctx) error {
	engine := insights.Current()
	if engine == nil {
		return sessionNotReady(c)
	}

	intent := models.Intent(strings.ToLower(c.Params("intent")))
	specs, err := engine.Charts(intent)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Unknown intent",
			"intents": guardrails.Intents(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": specs})
}

// HandleExportRisk downloads the scored deals as a parquet file.
// GET /api/v1/insights/export/risk.parquet
func HandleExportRisk(c *fiber.Ctx) error {
	engine := insights.Current()
	if engine == nil {
		return sessionNotReady(c)
	}

	data, err := export.RiskParquet(engine.Session().Scored)
	if err != nil {
		handlerLog().WithError(err).Error("risk export failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to build export"})
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="risk.parquet"`)
	return c.Send(data)
}
