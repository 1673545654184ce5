package routes

import (
	"task-tracker/interfaces/api/handlers"

	"github.com/gofiber/fiber/v2"
)

// GET /monitoring/events - lifecycle event stream status
func SetupMonitoringRoutes(api fiber.Router, h *handlers.Handlers) {
	monitoring := api.Group("/monitoring")
	monitoring.Get("/events", h.MonitoringHandler.GetEventStreamStatus)
}
