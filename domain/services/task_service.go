package services

import (
	"context"
	"task-tracker/domain/dto"
	"task-tracker/domain/models"
)

type TaskService interface {
	CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, filter *dto.TaskFilterRequest) ([]*models.Task, error)
	UpdateTask(ctx context.Context, id string, req *dto.UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	CompleteTask(ctx context.Context, id string) (*models.Task, error)
	AddSubtask(ctx context.Context, parentID string, req *dto.AddSubtaskRequest) (*models.Task, error)
}
