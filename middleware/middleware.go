// Package middleware holds the fiber middleware shared by every route.
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"salesintel/logger"
	"salesintel/telemetry"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// LocalRequestID is the context local holding the request id.
const LocalRequestID = "requestID"

// RequestID reuses an incoming X-Request-ID or assigns a new one, and echoes
// it on the response.
func RequestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(LocalRequestID, id)
	c.Set(RequestIDHeader, id)
	return c.Next()
}

// Observe records request metrics and writes one access log line per request.
func Observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	elapsed := time.Since(start)

	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	route := c.Route().Path
	telemetry.RecordHTTPRequest(route, c.Method(), status, elapsed.Seconds())

	entry := logger.GetLogger().WithComponent("http").WithFields(logger.Fields{
		"method":      c.Method(),
		"path":        c.Path(),
		"route":       route,
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
		"request_id":  c.Locals(LocalRequestID),
	})
	if status >= fiber.StatusInternalServerError {
		entry.Warn("request failed")
	} else {
		entry.Debug("request served")
	}
	return err
}
