package handlers

import (
	"task-tracker/domain/dto"
	"task-tracker/domain/services"
	"task-tracker/pkg/logger"
	"task-tracker/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks GET /tasks?status&priorityMin&priorityMax&title&sortBy&order
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var filter dto.TaskFilterRequest
	if err := c.QueryParser(&filter); err != nil {
		logger.WarnContext(ctx, "Invalid query parameters", "error", err)
		return utils.BadRequestResponse(c, "Invalid query parameters")
	}

	tasks, err := h.taskService.ListTasks(ctx, &filter)
	if err != nil {
		return respondError(c, err, "List tasks failed")
	}

	return utils.SuccessResponse(c, dto.TasksToTaskResponses(tasks))
}

// CreateTask POST /tasks
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBodyError(c, err)
	}

	task, err := h.taskService.CreateTask(ctx, &req)
	if err != nil {
		return respondError(c, err, "Task creation failed")
	}

	return utils.CreatedResponse(c, dto.TaskToTaskResponse(task))
}

// GetTask GET /tasks/:id
func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	task, err := h.taskService.GetTask(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Get task failed")
	}

	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

// UpdateTask PUT /tasks/:id
func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBodyError(c, err)
	}

	task, err := h.taskService.UpdateTask(ctx, c.Params("id"), &req)
	if err != nil {
		return respondError(c, err, "Task update failed")
	}

	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

// DeleteTask DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if err := h.taskService.DeleteTask(ctx, c.Params("id")); err != nil {
		return respondError(c, err, "Task deletion failed")
	}

	return utils.NoContentResponse(c)
}

// CompleteTask PATCH /tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	task, err := h.taskService.CompleteTask(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Task completion failed")
	}

	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

// AddSubtask POST /tasks/:taskId/subtasks
func (h *TaskHandler) AddSubtask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.AddSubtaskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBodyError(c, err)
	}

	subtask, err := h.taskService.AddSubtask(ctx, c.Params("taskId"), &req)
	if err != nil {
		return respondError(c, err, "Adding subtask failed")
	}

	return utils.CreatedResponse(c, dto.TaskToTaskResponse(subtask))
}
