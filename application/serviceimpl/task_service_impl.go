package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"task-tracker/domain/dto"
	"task-tracker/domain/models"
	"task-tracker/domain/ports"
	"task-tracker/domain/query"
	"task-tracker/domain/repositories"
	"task-tracker/domain/services"
	"task-tracker/pkg/logger"
	"task-tracker/pkg/utils"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type TaskServiceImpl struct {
	taskRepo  repositories.TaskRepository
	cache     ports.TaskListCache      // optional
	publisher ports.TaskEventPublisher // optional
	group     singleflight.Group
	writes    atomic.Uint64
	now       func() time.Time
}

// NewTaskService wires the task service. cache and publisher may be nil.
func NewTaskService(taskRepo repositories.TaskRepository, cache ports.TaskListCache, publisher ports.TaskEventPublisher) services.TaskService {
	return newTaskService(taskRepo, cache, publisher)
}

func newTaskService(taskRepo repositories.TaskRepository, cache ports.TaskListCache, publisher ports.TaskEventPublisher) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskRepo:  taskRepo,
		cache:     cache,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Create
// ═══════════════════════════════════════════════════════════════════════════════

func (s *TaskServiceImpl) CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*models.Task, error) {
	if req == nil {
		return nil, services.NewValidationError("body", "is required")
	}
	return s.create(ctx, req, ports.TaskCreated)
}

func (s *TaskServiceImpl) AddSubtask(ctx context.Context, parentID string, req *dto.AddSubtaskRequest) (*models.Task, error) {
	if req == nil {
		return nil, services.NewValidationError("body", "is required")
	}

	createReq := dto.AddSubtaskRequestToCreate(req, parentID)
	if strings.TrimSpace(createReq.ParentID) == "" {
		return nil, services.ErrTaskNotFound
	}
	return s.create(ctx, createReq, ports.TaskSubtaskAdded)
}

func (s *TaskServiceImpl) create(ctx context.Context, req *dto.CreateTaskRequest, eventType ports.TaskEventType) (*models.Task, error) {
	normalized := normalizeCreate(*req)
	if err := validateCreate(&normalized); err != nil {
		logger.WarnContext(ctx, "Task validation failed", "error", err)
		return nil, err
	}

	var parentID *uuid.UUID
	if normalized.ParentID != "" {
		parent, err := s.loadTask(ctx, normalized.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.IsDone() {
			logger.WarnContext(ctx, "Cannot attach task to completed parent", "parent_id", parent.ID)
			return nil, services.ErrParentCompleted
		}
		parentID = &parent.ID
	}

	task := s.buildTask(&normalized, parentID, s.now())
	if err := s.taskRepo.Create(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, services.ErrTaskNotFound
		}
		logger.ErrorContext(ctx, "Failed to create task", "error", err)
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.afterWrite(ctx, eventType, task)
	logger.InfoContext(ctx, "Task created", "task_id", task.ID, "parent_id", normalized.ParentID)

	return task, nil
}

// buildTask assigns identity and initial state to the task and every nested
// subtask. Statuses supplied by the caller are never read.
func (s *TaskServiceImpl) buildTask(req *dto.CreateTaskRequest, parentID *uuid.UUID, now time.Time) *models.Task {
	task := &models.Task{
		ID:          uuid.New(),
		ParentID:    parentID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    copyFloat(req.Priority),
		Status:      models.StatusTodo,
		CreatedAt:   now,
		Subtasks:    make([]*models.Task, 0, len(req.Subtasks)),
	}

	for i := range req.Subtasks {
		child := s.buildTask(&req.Subtasks[i], &task.ID, now)
		child.Position = i
		task.Subtasks = append(task.Subtasks, child)
	}
	return task
}

// ═══════════════════════════════════════════════════════════════════════════════
// Read
// ═══════════════════════════════════════════════════════════════════════════════

func (s *TaskServiceImpl) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.loadTask(ctx, id)
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, filter *dto.TaskFilterRequest) ([]*models.Task, error) {
	q, err := query.FromRequest(filter)
	if err != nil {
		var fe *query.FieldError
		if errors.As(err, &fe) {
			return nil, services.NewValidationError(fe.Field, fe.Message)
		}
		return nil, err
	}

	key := q.CacheKey()
	gen, cached := s.cacheGeneration(ctx)
	if cached {
		tasks, err := s.cache.Get(ctx, gen, key)
		switch {
		case err == nil:
			logger.DebugContext(ctx, "Task list served from cache", "key", key, "generation", gen)
			return tasks, nil
		case !errors.Is(err, ports.ErrCacheMiss):
			logger.WarnContext(ctx, "Task list cache read failed", "error", err)
		}
	}

	// A write between two lists starts a new flight instead of joining an old one.
	flight := fmt.Sprintf("%d:%d:%s", gen, s.writes.Load(), key)
	v, err, shared := s.group.Do(flight, func() (any, error) {
		// Shared by every caller in the flight; one caller going away must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		tasks, err := s.taskRepo.List(loadCtx, q)
		if err != nil {
			return nil, err
		}
		if cached {
			if err := s.cache.Set(loadCtx, gen, key, tasks); err != nil {
				logger.WarnContext(ctx, "Task list cache write failed", "error", err)
			}
		}
		return tasks, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list tasks", "error", err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := v.([]*models.Task)
	if shared {
		// Every caller of a coalesced load gets its own copy.
		out := make([]*models.Task, len(tasks))
		for i, t := range tasks {
			out[i] = t.Clone()
		}
		return out, nil
	}
	return tasks, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Update / Delete / Complete
// ═══════════════════════════════════════════════════════════════════════════════

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, id string, req *dto.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.IsDone() {
		logger.WarnContext(ctx, "Rejected update of completed task", "task_id", task.ID)
		return nil, services.ErrTaskCompleted
	}

	if req == nil {
		req = &dto.UpdateTaskRequest{}
	}
	normalized := normalizeUpdate(*req)
	if err := validateUpdate(&normalized, task); err != nil {
		logger.WarnContext(ctx, "Task update validation failed", "task_id", task.ID, "error", err)
		return nil, err
	}

	if normalized.Title != nil {
		task.Title = *normalized.Title
	}
	if normalized.Description != nil {
		task.Description = *normalized.Description
	}
	if normalized.Priority.Set {
		task.Priority = copyFloat(normalized.Priority.Value)
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, services.ErrTaskNotFound
		}
		logger.ErrorContext(ctx, "Failed to update task", "task_id", task.ID, "error", err)
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.afterWrite(ctx, ports.TaskUpdated, task)
	logger.InfoContext(ctx, "Task updated", "task_id", task.ID)

	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, id string) error {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return err
	}

	if task.IsDone() {
		logger.WarnContext(ctx, "Rejected deletion of completed task", "task_id", task.ID)
		return services.ErrTaskCompleted
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return services.ErrTaskNotFound
		}
		logger.ErrorContext(ctx, "Failed to delete task", "task_id", task.ID, "error", err)
		return fmt.Errorf("delete task: %w", err)
	}

	s.afterWrite(ctx, ports.TaskDeleted, task)
	logger.InfoContext(ctx, "Task deleted", "task_id", task.ID)

	return nil
}

func (s *TaskServiceImpl) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.IsDone() {
		return nil, services.ErrAlreadyCompleted
	}
	if task.HasIncompleteSubtasks() {
		logger.WarnContext(ctx, "Task has incomplete subtasks", "task_id", task.ID)
		return nil, services.ErrIncompleteSubtasks
	}

	completedAt := s.now()
	task.Status = models.StatusDone
	task.CompletedAt = &completedAt

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, services.ErrTaskNotFound
		}
		logger.ErrorContext(ctx, "Failed to complete task", "task_id", task.ID, "error", err)
		return nil, fmt.Errorf("complete task: %w", err)
	}

	s.afterWrite(ctx, ports.TaskCompleted, task)
	logger.InfoContext(ctx, "Task completed", "task_id", task.ID)

	return task, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════════════════════════

// loadTask resolves an opaque id. Ids that are not UUIDs cannot exist, so they
// are reported as not found.
func (s *TaskServiceImpl) loadTask(ctx context.Context, id string) (*models.Task, error) {
	taskID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, services.ErrTaskNotFound
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, services.ErrTaskNotFound
		}
		logger.ErrorContext(ctx, "Failed to load task", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("load task: %w", err)
	}
	return task, nil
}

// cacheGeneration reports the list cache generation to read and fill. It must
// be taken before the store is read.
func (s *TaskServiceImpl) cacheGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Task list cache generation read failed", "error", err)
		return 0, false
	}
	return gen, true
}

// afterWrite drops cached list results and emits the lifecycle event. Neither
// step can fail the write that preceded it.
func (s *TaskServiceImpl) afterWrite(ctx context.Context, eventType ports.TaskEventType, task *models.Task) {
	s.writes.Add(1)
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to invalidate task list cache", "error", err)
		}
	}
	s.publish(ctx, eventType, task)
}

func (s *TaskServiceImpl) publish(ctx context.Context, eventType ports.TaskEventType, task *models.Task) {
	if s.publisher == nil {
		return
	}

	event := &ports.TaskEvent{
		Type:       eventType,
		TaskID:     task.ID.String(),
		Title:      task.Title,
		Status:     string(task.Status),
		OccurredAt: s.now(),
	}
	if task.ParentID != nil {
		event.ParentID = task.ParentID.String()
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish task event",
			"type", eventType,
			"task_id", task.ID,
			"error", err,
		)
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ═══════════════════════════════════════════════════════════════════════════════
// Validation
// ═══════════════════════════════════════════════════════════════════════════════

func normalizeCreate(req dto.CreateTaskRequest) dto.CreateTaskRequest {
	req.Title = strings.TrimSpace(req.Title)
	req.ParentID = strings.TrimSpace(req.ParentID)
	if len(req.Subtasks) > 0 {
		subtasks := make([]dto.CreateTaskRequest, len(req.Subtasks))
		for i, st := range req.Subtasks {
			subtasks[i] = normalizeCreate(st)
		}
		req.Subtasks = subtasks
	}
	return req
}

func validateCreate(req *dto.CreateTaskRequest) error {
	verr := &services.ValidationError{}

	if err := utils.ValidateStruct(req); err != nil {
		for field, msg := range utils.GetValidationErrors(err) {
			verr.Add(field, msg)
		}
	}
	checkPriorities(req, "", verr)

	if verr.Empty() {
		return nil
	}
	return verr
}

// checkPriorities walks the request tree; JSON cannot carry NaN or Inf but
// other callers can.
func checkPriorities(req *dto.CreateTaskRequest, prefix string, verr *services.ValidationError) {
	if req.Priority != nil && !isFinite(*req.Priority) {
		verr.Add(prefix+"priority", "must be a finite number")
	}
	for i := range req.Subtasks {
		checkPriorities(&req.Subtasks[i], fmt.Sprintf("%ssubtasks[%d].", prefix, i), verr)
	}
}

func normalizeUpdate(req dto.UpdateTaskRequest) dto.UpdateTaskRequest {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		req.Status = &status
	}
	return req
}

func validateUpdate(req *dto.UpdateTaskRequest, current *models.Task) error {
	verr := &services.ValidationError{}

	if err := utils.ValidateStruct(req); err != nil {
		for field, msg := range utils.GetValidationErrors(err) {
			verr.Add(field, msg)
		}
	}
	if req.Title != nil && *req.Title == "" {
		verr.Add("title", "must not be empty")
	}
	if req.Priority.Value != nil && !isFinite(*req.Priority.Value) {
		verr.Add("priority", "must be a finite number")
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		switch {
		case !status.IsValid():
			verr.Add("status", "must be one of: todo done")
		case status != current.Status:
			verr.Add("status", "use the complete operation to change status")
		}
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
