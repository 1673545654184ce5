package ports

import (
	"context"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Task Event Port
// ═══════════════════════════════════════════════════════════════════════════════

type TaskEventType string

const (
	TaskCreated      TaskEventType = "created"
	TaskUpdated      TaskEventType = "updated"
	TaskCompleted    TaskEventType = "completed"
	TaskDeleted      TaskEventType = "deleted"
	TaskSubtaskAdded TaskEventType = "subtask_added"
)

// TaskEvent is published after a lifecycle change has been stored.
type TaskEvent struct {
	Type       TaskEventType `json:"type" yaml:"type"`
	TaskID     string        `json:"taskId" yaml:"taskId"`
	ParentID   string        `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Title      string        `json:"title,omitempty" yaml:"title,omitempty"`
	Status     string        `json:"status,omitempty" yaml:"status,omitempty"`
	OccurredAt time.Time     `json:"occurredAt" yaml:"occurredAt"`
}

// TaskEventPublisher delivers lifecycle events to downstream consumers.
type TaskEventPublisher interface {
	Publish(ctx context.Context, event *TaskEvent) error
}
