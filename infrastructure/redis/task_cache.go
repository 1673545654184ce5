package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"task-tracker/domain/models"
	"task-tracker/domain/ports"
)

const (
	taskListPrefix     = "tasks:list:"
	taskListGeneration = "tasks:list:gen"

	// Entry keys carry a numeric generation right after the prefix; the
	// counter key does not, so the pattern leaves it alone.
	taskListEntryPattern = taskListPrefix + "[0-9]*"
)

// TaskCache caches list results under a generation number. InvalidateAll
// bumps the generation, so stale entries are never read again and expire
// on their own TTL.
type TaskCache struct {
	client *Client
	ttl    time.Duration
}

func NewTaskCache(client *Client, ttl time.Duration) *TaskCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TaskCache{client: client, ttl: ttl}
}

var _ ports.TaskListCache = (*TaskCache)(nil)

func (c *TaskCache) Generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, taskListGeneration)
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *TaskCache) Get(ctx context.Context, gen int64, key string) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := c.client.GetJSON(ctx, entryKey(gen, key), &tasks); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

func (c *TaskCache) Set(ctx context.Context, gen int64, key string, tasks []*models.Task) error {
	return c.client.SetJSON(ctx, entryKey(gen, key), tasks, c.ttl)
}

func (c *TaskCache) InvalidateAll(ctx context.Context) error {
	_, err := c.client.Incr(ctx, taskListGeneration)
	return err
}

// Purge removes every cached list entry regardless of generation. The
// generation counter survives so other instances sharing Redis keep theirs.
func (c *TaskCache) Purge(ctx context.Context) (int64, error) {
	return c.client.ScanAndDelete(ctx, taskListEntryPattern)
}

func entryKey(gen int64, key string) string {
	return taskListPrefix + strconv.FormatInt(gen, 10) + ":" + key
}
