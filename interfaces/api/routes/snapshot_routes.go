package routes

import (
	"task-tracker/interfaces/api/handlers"

	"github.com/gofiber/fiber/v2"
)

func SetupSnapshotRoutes(api fiber.Router, h *handlers.Handlers) {
	snapshots := api.Group("/snapshots")
	snapshots.Get("/", h.SnapshotHandler.ListSnapshots)
	snapshots.Get("/latest", h.SnapshotHandler.GetLatestSnapshot)
	snapshots.Post("/", h.SnapshotHandler.CreateSnapshot)
}
