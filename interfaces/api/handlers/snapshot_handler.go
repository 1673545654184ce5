package handlers

import (
	"context"

	"task-tracker/domain/dto"
	"task-tracker/pkg/logger"
	"task-tracker/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type SnapshotService interface {
	Export(ctx context.Context) (string, error)
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, objectPath string) (*dto.TaskSnapshot, error)
}

type SnapshotHandler struct {
	snapshots SnapshotService
}

func NewSnapshotHandler(snapshots SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// CreateSnapshot POST /snapshots
func (h *SnapshotHandler) CreateSnapshot(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if h.snapshots == nil {
		return utils.ServiceUnavailableResponse(c, "Snapshots are not configured")
	}

	objectPath, err := h.snapshots.Export(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Snapshot export failed", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.CreatedResponse(c, fiber.Map{"path": objectPath})
}

// ListSnapshots GET /snapshots
func (h *SnapshotHandler) ListSnapshots(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if h.snapshots == nil {
		return utils.ServiceUnavailableResponse(c, "Snapshots are not configured")
	}

	paths, err := h.snapshots.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Snapshot listing failed", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, paths)
}

// GetLatestSnapshot GET /snapshots/latest
func (h *SnapshotHandler) GetLatestSnapshot(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if h.snapshots == nil {
		return utils.ServiceUnavailableResponse(c, "Snapshots are not configured")
	}

	paths, err := h.snapshots.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Snapshot listing failed", "error", err)
		return utils.InternalServerErrorResponse(c)
	}
	if len(paths) == 0 {
		return utils.NotFoundResponse(c, "No snapshots yet")
	}

	snapshot, err := h.snapshots.Load(ctx, paths[0])
	if err != nil {
		logger.ErrorContext(ctx, "Snapshot load failed", "path", paths[0], "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, snapshot)
}
