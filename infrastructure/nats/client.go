package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"task-tracker/pkg/logger"
)

// Client wraps a NATS connection and the task event stream.
type Client struct {
	conn       *nats.Conn
	js         jetstream.JetStream
	stream     jetstream.Stream
	streamName string
}

type ClientConfig struct {
	URL        string        // nats://localhost:4222
	StreamName string        // TASK_EVENTS
	MaxAge     time.Duration // event retention, default 7 days
}

func NewClient(cfg ClientConfig) (*Client, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("task-tracker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if cfg.StreamName == "" {
		cfg.StreamName = DefaultStreamName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}

	client := &Client{conn: nc, js: js, streamName: cfg.StreamName}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.setupStream(ctx, cfg.MaxAge); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to setup stream: %w", err)
	}

	logger.Info("NATS client initialized", "url", cfg.URL, "stream", cfg.StreamName)
	return client, nil
}

// setupStream keeps events for maxAge regardless of consumers (limits
// retention), so late subscribers can replay the lifecycle history.
func (c *Client) setupStream(ctx context.Context, maxAge time.Duration) error {
	stream, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        c.streamName,
		Subjects:    []string{SubjectWildcard},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      maxAge,
		Replicas:    1,
		Description: "Task lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create/update stream %s: %w", c.streamName, err)
	}
	c.stream = stream
	logger.Info("JetStream stream ready", "name", c.streamName)
	return nil
}

func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

func (c *Client) GetStatus(ctx context.Context) (*StreamStatus, error) {
	info, err := c.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return &StreamStatus{
		Name:     info.Config.Name,
		Messages: info.State.Msgs,
		Bytes:    info.State.Bytes,
		FirstSeq: info.State.FirstSeq,
		LastSeq:  info.State.LastSeq,
	}, nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
		logger.Info("NATS connection closed")
	}
	return nil
}

func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
