package serviceimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"task-tracker/domain/dto"
	"task-tracker/domain/ports"
	"task-tracker/domain/query"
	"task-tracker/domain/repositories"
	"task-tracker/pkg/logger"
	"task-tracker/pkg/scheduler"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	snapshotJobID      = "task_snapshot"
	snapshotTimeLayout = "20060102T150405.000Z"
)

type SnapshotConfig struct {
	AppName string
	Prefix  string
	Cron    string
	Keep    int
}

// SnapshotService writes the full task forest to object storage as JSON.
type SnapshotService struct {
	config    SnapshotConfig
	taskRepo  repositories.TaskRepository
	storage   ports.StoragePort
	scheduler scheduler.EventScheduler
	now       func() time.Time
}

func NewSnapshotService(
	config SnapshotConfig,
	taskRepo repositories.TaskRepository,
	storage ports.StoragePort,
	eventScheduler scheduler.EventScheduler,
) *SnapshotService {
	if config.Prefix == "" {
		config.Prefix = "snapshots"
	}
	if config.Cron == "" {
		config.Cron = "0 * * * *"
	}
	config.Prefix = strings.Trim(config.Prefix, "/")

	return &SnapshotService{
		config:    config,
		taskRepo:  taskRepo,
		storage:   storage,
		scheduler: eventScheduler,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegisterJob schedules Export on the configured cron expression.
func (s *SnapshotService) RegisterJob() error {
	if s.scheduler == nil {
		return fmt.Errorf("snapshot service has no scheduler")
	}
	return s.scheduler.AddJob(snapshotJobID, s.config.Cron, func() {
		ctx := context.Background()
		if _, err := s.Export(ctx); err != nil {
			logger.ErrorContext(ctx, "Scheduled snapshot failed", "error", err)
		}
	})
}

// Export uploads the current forest and returns the stored object path.
func (s *SnapshotService) Export(ctx context.Context) (string, error) {
	tasks, err := s.taskRepo.List(ctx, query.TaskQuery{})
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}

	takenAt := s.now()
	snapshot := dto.TaskSnapshot{
		TakenAt: takenAt,
		Count:   len(tasks),
		Tasks:   dto.TasksToTaskResponses(tasks),
	}

	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	objectPath := s.objectPath(takenAt)
	url, err := s.storage.UploadFile(bytes.NewReader(body), objectPath, "application/json")
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	logger.InfoContext(ctx, "Snapshot exported",
		"path", objectPath,
		"url", url,
		"tasks", snapshot.Count,
		"provider", s.storage.GetProviderName(),
	)

	if s.config.Keep > 0 {
		if err := s.Prune(ctx, s.config.Keep); err != nil {
			logger.WarnContext(ctx, "Failed to prune old snapshots", "error", err)
		}
	}
	return objectPath, nil
}

// List returns stored snapshot paths, newest first.
func (s *SnapshotService) List(ctx context.Context) ([]string, error) {
	files, err := s.storage.ListFiles(s.config.Prefix + "/")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	prefix := s.filePrefix()
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if strings.HasPrefix(path.Base(f), prefix) && strings.HasSuffix(f, ".json") {
			paths = append(paths, f)
		}
	}
	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Load reads a previously exported snapshot.
func (s *SnapshotService) Load(ctx context.Context, objectPath string) (*dto.TaskSnapshot, error) {
	rc, _, err := s.storage.GetFileContent(objectPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", objectPath, err)
	}
	defer rc.Close()

	var snapshot dto.TaskSnapshot
	if err := json.NewDecoder(rc).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", objectPath, err)
	}
	return &snapshot, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *SnapshotService) Prune(ctx context.Context, keep int) error {
	paths, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(paths) <= keep {
		return nil
	}

	for _, p := range paths[keep:] {
		if err := s.storage.DeleteFile(p); err != nil {
			return fmt.Errorf("delete snapshot %s: %w", p, err)
		}
		logger.DebugContext(ctx, "Snapshot pruned", "path", p)
	}
	return nil
}

func (s *SnapshotService) filePrefix() string {
	name := slug.Make(s.config.AppName)
	if name == "" {
		name = "tasks"
	}
	return name + "-"
}

// objectPath names a snapshot by time, then a random suffix so exports in the
// same millisecond (an API call racing the cron job) never overwrite each other.
func (s *SnapshotService) objectPath(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := s.filePrefix() + at.UTC().Format(snapshotTimeLayout) + "-" + suffix + ".json"
	return path.Join(s.config.Prefix, name)
}
