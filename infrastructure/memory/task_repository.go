// Package memory provides an in-process task store. It backs the CLI's
// default mode and the service and handler tests.
package memory

import (
	"context"
	"sync"
	"task-tracker/domain/models"
	"task-tracker/domain/query"
	"task-tracker/domain/repositories"

	"github.com/google/uuid"
)

// TaskRepository keeps task trees in memory. Callers only ever see deep
// copies, so a returned task can be mutated freely.
type TaskRepository struct {
	mu    sync.RWMutex
	roots []*models.Task
	byID  map[uuid.UUID]*models.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		byID: make(map[uuid.UUID]*models.Task),
	}
}

var _ repositories.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var parent *models.Task
	if task.ParentID != nil {
		p, ok := r.byID[*task.ParentID]
		if !ok {
			return repositories.ErrTaskNotFound
		}
		parent = p
		task.Position = len(parent.Subtasks)
	} else {
		task.Position = len(r.roots)
	}

	stored := task.Clone()
	stored.Walk(func(t *models.Task) bool {
		for i, st := range t.Subtasks {
			id := t.ID
			st.ParentID = &id
			st.Position = i
		}
		r.byID[t.ID] = t
		return true
	})

	if parent != nil {
		parent.Subtasks = append(parent.Subtasks, stored)
	} else {
		r.roots = append(r.roots, stored)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[task.ID]
	if !ok {
		return repositories.ErrTaskNotFound
	}

	// Copy through Clone so the stored node shares no pointers with task.
	src := &models.Task{
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		CompletedAt: task.CompletedAt,
	}
	src = src.Clone()

	t.Title = src.Title
	t.Description = src.Description
	t.Priority = src.Priority
	t.Status = task.Status
	t.CompletedAt = src.CompletedAt
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return repositories.ErrTaskNotFound
	}

	if t.ParentID != nil {
		if parent, ok := r.byID[*t.ParentID]; ok {
			parent.Subtasks = removeTask(parent.Subtasks, id)
		}
	} else {
		r.roots = removeTask(r.roots, id)
	}

	t.Walk(func(n *models.Task) bool {
		delete(r.byID, n.ID)
		return true
	})
	return nil
}

func (r *TaskRepository) List(ctx context.Context, q query.TaskQuery) ([]*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := q.Filter(r.roots)
	out := make([]*models.Task, len(matched))
	for i, t := range matched {
		out[i] = t.Clone()
	}
	r.mu.RUnlock()

	q.Sort(out)
	return out, nil
}

// Len returns the number of stored tasks, subtasks included.
func (r *TaskRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func removeTask(tasks []*models.Task, id uuid.UUID) []*models.Task {
	for i, t := range tasks {
		if t.ID == id {
			return append(tasks[:i:i], tasks[i+1:]...)
		}
	}
	return tasks
}
