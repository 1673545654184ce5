package api

import (
	"task-tracker/interfaces/api/handlers"
	"task-tracker/interfaces/api/middleware"
	"task-tracker/interfaces/api/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type ServerConfig struct {
	AppName     string
	BasePath    string
	CORSOrigins string
}

// NewServer builds the fiber app with middleware and routes in place.
func NewServer(cfg ServerConfig, h *handlers.Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		AppName:               cfg.AppName,
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Order matters: the request id must exist before anything logs.
	app.Use(recover.New())
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CorsMiddleware(cfg.CORSOrigins))

	routes.SetupRoutes(app, h, cfg.BasePath)
	return app
}
