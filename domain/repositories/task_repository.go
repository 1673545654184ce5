package repositories

import (
	"context"
	"errors"
	"task-tracker/domain/models"
	"task-tracker/domain/query"

	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository persists task trees. Every read returns tasks with their
// full subtree attached; writes never touch a task's subtasks except Delete,
// which removes the whole subtree.
type TaskRepository interface {
	// Create stores task and any nested Subtasks. When task.ParentID is set
	// the task is appended after the parent's existing subtasks.
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// Update writes the scalar fields of task (title, description, priority,
	// status, completedAt).
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns root tasks only, filtered and ordered by q.
	List(ctx context.Context, q query.TaskQuery) ([]*models.Task, error)
}
