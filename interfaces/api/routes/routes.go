package routes

import (
	"task-tracker/interfaces/api/handlers"
	"task-tracker/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts every route under basePath ("" mounts at the root).
func SetupRoutes(app *fiber.App, h *handlers.Handlers, basePath string) {
	SetupHealthRoutes(app, h)

	api := app.Group(basePath)

	SetupTaskRoutes(api, h)
	SetupSnapshotRoutes(api, h)
	SetupMonitoringRoutes(api, h)

	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "Route not found")
	})
}
