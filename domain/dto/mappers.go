package dto

import (
	"task-tracker/domain/models"
)

func TaskToTaskResponse(task *models.Task) *TaskResponse {
	if task == nil {
		return nil
	}
	resp := &TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
		Subtasks:    make([]TaskResponse, 0, len(task.Subtasks)),
	}
	for _, st := range task.Subtasks {
		resp.Subtasks = append(resp.Subtasks, *TaskToTaskResponse(st))
	}
	return resp
}

func TasksToTaskResponses(tasks []*models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, *TaskToTaskResponse(t))
	}
	return out
}

func AddSubtaskRequestToCreate(req *AddSubtaskRequest, parentID string) *CreateTaskRequest {
	return &CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		ParentID:    parentID,
	}
}
