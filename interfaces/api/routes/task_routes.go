package routes

import (
	"task-tracker/interfaces/api/handlers"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(api fiber.Router, h *handlers.Handlers) {
	tasks := api.Group("/tasks")
	tasks.Get("/", h.TaskHandler.ListTasks)
	tasks.Post("/", h.TaskHandler.CreateTask)
	tasks.Get("/:id", h.TaskHandler.GetTask)
	tasks.Put("/:id", h.TaskHandler.UpdateTask)
	tasks.Delete("/:id", h.TaskHandler.DeleteTask)
	tasks.Patch("/:id/complete", h.TaskHandler.CompleteTask)
	tasks.Post("/:taskId/subtasks", h.TaskHandler.AddSubtask)
}
