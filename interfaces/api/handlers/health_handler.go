package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency. A nil Check means the dependency is
// not configured.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	appName string
	store   string
	checks  []HealthCheck
}

func NewHealthHandler(appName, store string, checks []HealthCheck) *HealthHandler {
	return &HealthHandler{appName: appName, store: store, checks: checks}
}

// Health GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		switch {
		case check.Check == nil:
			components[check.Name] = "disabled"
		case check.Check(ctx) != nil:
			components[check.Name] = "down"
			status = "degraded"
		default:
			components[check.Name] = "up"
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":     status,
		"service":    h.appName,
		"store":      h.store,
		"components": components,
	})
}
