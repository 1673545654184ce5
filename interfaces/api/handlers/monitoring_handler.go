package handlers

import (
	"context"

	natspkg "task-tracker/infrastructure/nats"
	"task-tracker/pkg/logger"
	"task-tracker/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type StreamStatusProvider interface {
	GetStatus(ctx context.Context) (*natspkg.StreamStatus, error)
}

// MonitoringHandler exposes the lifecycle event stream state.
type MonitoringHandler struct {
	stream StreamStatusProvider
}

func NewMonitoringHandler(stream StreamStatusProvider) *MonitoringHandler {
	return &MonitoringHandler{stream: stream}
}

// GetEventStreamStatus GET /monitoring/events
func (h *MonitoringHandler) GetEventStreamStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if h.stream == nil {
		return utils.ServiceUnavailableResponse(c, "Event stream not available")
	}

	status, err := h.stream.GetStatus(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to get event stream status", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, status)
}
