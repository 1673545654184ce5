package dto

import (
	"bytes"
	"encoding/json"
	"time"
)

type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"omitempty,max=2000"`
	Priority    *float64            `json:"priority"`
	ParentID    string              `json:"parentId"`
	Subtasks    []CreateTaskRequest `json:"subtasks" validate:"omitempty,dive"`
}

type AddSubtaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Priority    *float64 `json:"priority"`
}

// UpdateTaskRequest carries the mutable fields only. Anything else in the
// request body is dropped during decoding.
type UpdateTaskRequest struct {
	Title       *string       `json:"title" validate:"omitempty,max=200"`
	Description *string       `json:"description" validate:"omitempty,max=2000"`
	Priority    OptionalFloat `json:"priority"`
	Status      *string       `json:"status"`
}

// OptionalFloat tells an absent JSON field apart from an explicit null.
type OptionalFloat struct {
	Set   bool
	Value *float64
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func SetPriority(v float64) OptionalFloat {
	return OptionalFloat{Set: true, Value: &v}
}

func ClearPriority() OptionalFloat {
	return OptionalFloat{Set: true}
}

type TaskFilterRequest struct {
	Status      string `query:"status"`
	PriorityMin string `query:"priorityMin"`
	PriorityMax string `query:"priorityMax"`
	Title       string `query:"title"`
	SortBy      string `query:"sortBy"`
	Order       string `query:"order"`
}

type TaskResponse struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Priority    *float64       `json:"priority" yaml:"priority"`
	Status      string         `json:"status" yaml:"status"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Subtasks    []TaskResponse `json:"subtasks" yaml:"subtasks"`
}

type TaskSnapshot struct {
	TakenAt time.Time      `json:"takenAt" yaml:"takenAt"`
	Count   int            `json:"count" yaml:"count"`
	Tasks   []TaskResponse `json:"tasks" yaml:"tasks"`
}
