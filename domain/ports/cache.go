package ports

import (
	"context"
	"errors"
	"task-tracker/domain/models"
)

var ErrCacheMiss = errors.New("cache miss")

// TaskListCache holds the results of list queries keyed by a canonical query
// string within a generation. Readers take the generation before loading from
// the store and pass it to Set, so a load that raced a write is filed under a
// generation nobody reads anymore. Any write to the store must call
// InvalidateAll.
type TaskListCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, key string) ([]*models.Task, error)
	Set(ctx context.Context, gen int64, key string, tasks []*models.Task) error
	InvalidateAll(ctx context.Context) error
}
