package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"task-tracker/domain/ports"
	"task-tracker/pkg/logger"
)

// EventHandler receives decoded task events in stream order.
type EventHandler func(event *ports.TaskEvent)

// Subscriber tails the task event stream with an ordered, ephemeral consumer.
type Subscriber struct {
	client *Client
}

func NewSubscriber(client *Client) *Subscriber {
	return &Subscriber{client: client}
}

// Follow delivers events until ctx is cancelled. With replay set it starts at
// the first retained event, otherwise at the next one published.
func (s *Subscriber) Follow(ctx context.Context, replay bool, handler EventHandler) error {
	policy := jetstream.DeliverNewPolicy
	if replay {
		policy = jetstream.DeliverAllPolicy
	}

	consumer, err := s.client.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{SubjectWildcard},
		DeliverPolicy:  policy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var event ports.TaskEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			logger.Warn("Skipping malformed task event", "subject", msg.Subject(), "error", err)
			return
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Task event handler panicked", "error", r)
				}
			}()
			handler(&event)
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	logger.Info("Following task events", "stream", s.client.streamName, "replay", replay)
	<-ctx.Done()
	return nil
}
