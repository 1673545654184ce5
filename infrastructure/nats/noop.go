package nats

import (
	"context"

	"task-tracker/domain/ports"
	"task-tracker/pkg/logger"
)

// NoopPublisher stands in when NATS is not configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) Publish(ctx context.Context, event *ports.TaskEvent) error {
	logger.DebugContext(ctx, "Task event (noop)", "type", event.Type, "task_id", event.TaskID)
	return nil
}

var _ ports.TaskEventPublisher = NoopPublisher{}
