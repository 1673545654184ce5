package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-tracker/interfaces/api"
	"task-tracker/interfaces/api/handlers"
	"task-tracker/pkg/di"
	"task-tracker/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

func main() {
	container := di.NewContainer()

	if err := container.Initialize(); err != nil {
		// The logger may not be ready yet.
		panic("Failed to initialize container: " + err.Error())
	}

	cfg := container.GetConfig()
	app := api.NewServer(api.ServerConfig{
		AppName:     cfg.App.Name,
		BasePath:    cfg.App.BasePath,
		CORSOrigins: cfg.App.CORSOrigins,
	}, handlers.NewHandlers(container.GetHandlerServices()))

	setupGracefulShutdown(app, container)

	logger.Info("Server starting",
		"port", cfg.App.Port,
		"env", cfg.App.Env,
		"store", cfg.Store.Type,
		"base_path", cfg.App.BasePath,
	)

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}

func setupGracefulShutdown(app *fiber.App, container *di.Container) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Gracefully shutting down...")

		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Error shutting down server", "error", err)
		}
		if err := container.Cleanup(); err != nil {
			logger.Error("Error during cleanup", "error", err)
		}

		logger.Info("Shutdown complete")
		os.Exit(0)
	}()
}
