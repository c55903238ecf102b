package handlers

import (
	"github.com/gofiber/fiber/v2"

	"salesintel/insights"
)

// HandleHealthz reports liveness and whether a session is loaded.
// GET /healthz
func HandleHealthz(c *fiber.Ctx) error {
	engine := insights.Current()
	if engine == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "starting"})
	}
	s := engine.Session()
	return c.JSON(fiber.Map{
		"status":     "ok",
		"session_id": s.ID,
		"source":     s.Source,
		"loaded_at":  s.LoadedAt,
		"deals":      len(s.Deals),
	})
}
