package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"task-tracker/domain/ports"
	"task-tracker/pkg/logger"
)

// Publisher writes task lifecycle events to JetStream.
type Publisher struct {
	js jetstream.JetStream
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{js: client.JetStream()}
}

var _ ports.TaskEventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, event *ports.TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := Subject(event.Type)
	// Msg id lets JetStream drop duplicates within its dedupe window.
	msgID := fmt.Sprintf("%s-%s-%d", event.Type, event.TaskID, event.OccurredAt.UnixNano())

	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msgID))
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	logger.DebugContext(ctx, "Task event published",
		"subject", subject,
		"task_id", event.TaskID,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
	)
	return nil
}
