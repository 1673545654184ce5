package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"task-tracker/domain/dto"
	"task-tracker/domain/models"
	"task-tracker/domain/ports"
	"task-tracker/domain/query"
	"task-tracker/domain/repositories"
	"task-tracker/domain/services"
	"task-tracker/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*ports.TaskEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *ports.TaskEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []ports.TaskEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.TaskEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// mapCache mirrors the Redis cache: entries live under a generation and
// InvalidateAll only moves the generation forward.
type mapCache struct {
	mu      sync.Mutex
	gen     int64
	entries map[string][]*models.Task
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]*models.Task)}
}

func (c *mapCache) Generation(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *mapCache) Get(_ context.Context, gen int64, key string) ([]*models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks, ok := c.entries[fmt.Sprintf("%d:%s", gen, key)]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return tasks, nil
}

func (c *mapCache) Set(_ context.Context, gen int64, key string, tasks []*models.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fmt.Sprintf("%d:%s", gen, key)] = tasks
	return nil
}

func (c *mapCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}

func (c *mapCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// gatedRepo pauses the first List after it has read the store, until
// release is closed. Cancellation is checked once the gate opens.
type gatedRepo struct {
	repositories.TaskRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{
		TaskRepository: memory.NewTaskRepository(),
		loaded:         make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (r *gatedRepo) List(ctx context.Context, q query.TaskQuery) ([]*models.Task, error) {
	tasks, err := r.TaskRepository.List(ctx, q)
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.loaded)
		<-r.release
	}
	if err == nil {
		err = ctx.Err()
	}
	return tasks, err
}

func newTestService() (*TaskServiceImpl, *recordingPublisher) {
	pub := &recordingPublisher{}
	return newTaskService(memory.NewTaskRepository(), nil, pub), pub
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func mustCreate(t *testing.T, s *TaskServiceImpl, req dto.CreateTaskRequest) *models.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), &req)
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", req.Title, err)
	}
	return task
}

func TestCreateTaskInitialState(t *testing.T) {
	s, pub := newTestService()

	task := mustCreate(t, s, dto.CreateTaskRequest{
		Title:    "  Write proposal  ",
		Priority: fptr(3),
		Subtasks: []dto.CreateTaskRequest{
			{Title: "Outline", Subtasks: []dto.CreateTaskRequest{{Title: "Headings"}}},
			{Title: "Draft"},
		},
	})

	if task.Title != "Write proposal" {
		t.Errorf("Title = %q, want trimmed", task.Title)
	}
	seen := map[string]bool{}
	task.Walk(func(n *models.Task) bool {
		if n.Status != models.StatusTodo || n.CompletedAt != nil {
			t.Errorf("%q: status=%s completedAt=%v", n.Title, n.Status, n.CompletedAt)
		}
		if seen[n.ID.String()] {
			t.Errorf("duplicate id %s", n.ID)
		}
		seen[n.ID.String()] = true
		return true
	})
	if len(seen) != 4 {
		t.Errorf("tree size = %d, want 4", len(seen))
	}
	if task.Subtasks[0].Title != "Outline" || task.Subtasks[1].Title != "Draft" {
		t.Errorf("subtask order not preserved")
	}

	got, err := s.GetTask(context.Background(), task.Subtasks[0].Subtasks[0].ID.String())
	if err != nil || got.Title != "Headings" {
		t.Errorf("nested subtask not addressable: %v", err)
	}

	if types := pub.types(); len(types) != 1 || types[0] != ports.TaskCreated {
		t.Errorf("events = %v", types)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s, _ := newTestService()

	tests := []struct {
		name  string
		req   dto.CreateTaskRequest
		field string
	}{
		{"missing title", dto.CreateTaskRequest{}, "title"},
		{"blank title", dto.CreateTaskRequest{Title: "   "}, "title"},
		{"infinite priority", dto.CreateTaskRequest{Title: "x", Priority: fptr(math.Inf(1))}, "priority"},
		{"NaN priority", dto.CreateTaskRequest{Title: "x", Priority: fptr(math.NaN())}, "priority"},
		{
			"nested subtask without title",
			dto.CreateTaskRequest{Title: "x", Subtasks: []dto.CreateTaskRequest{{Title: "ok"}, {Title: " "}}},
			"subtasks[1].title",
		},
		{
			"nested subtask bad priority",
			dto.CreateTaskRequest{Title: "x", Subtasks: []dto.CreateTaskRequest{{Title: "ok", Priority: fptr(math.Inf(-1))}}},
			"subtasks[0].priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTask(context.Background(), &tt.req)
			var verr *services.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want key %q", verr.Fields, tt.field)
			}
		})
	}
}

func TestCreateTaskWithParent(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	parent := mustCreate(t, s, dto.CreateTaskRequest{Title: "parent"})

	child := mustCreate(t, s, dto.CreateTaskRequest{Title: "child", ParentID: parent.ID.String()})
	reloaded, _ := s.GetTask(ctx, parent.ID.String())
	if len(reloaded.Subtasks) != 1 || reloaded.Subtasks[0].ID != child.ID {
		t.Fatalf("child not attached to parent")
	}

	roots, _ := s.ListTasks(ctx, &dto.TaskFilterRequest{})
	if len(roots) != 1 {
		t.Errorf("subtask listed as root: %d roots", len(roots))
	}

	for _, id := range []string{"not-a-uuid", "5f1c7e0a-6d4b-4b8e-9a53-2f0f3c8c1a11"} {
		_, err := s.CreateTask(ctx, &dto.CreateTaskRequest{Title: "orphan", ParentID: id})
		if !errors.Is(err, services.ErrTaskNotFound) {
			t.Errorf("parentId %q: err = %v, want ErrTaskNotFound", id, err)
		}
	}
}

func TestCompleteTaskScenario(t *testing.T) {
	s, pub := newTestService()
	ctx := context.Background()

	a := mustCreate(t, s, dto.CreateTaskRequest{Title: "Write proposal", Priority: fptr(3)})
	b, err := s.AddSubtask(ctx, a.ID.String(), &dto.AddSubtaskRequest{Title: "Research"})
	if err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}

	_, err = s.CompleteTask(ctx, a.ID.String())
	if !errors.Is(err, services.ErrIncompleteSubtasks) || !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("CompleteTask(A) = %v, want incomplete subtasks", err)
	}
	stillTodo, _ := s.GetTask(ctx, a.ID.String())
	if stillTodo.Status != models.StatusTodo || stillTodo.CompletedAt != nil {
		t.Errorf("A changed by failed completion: %+v", stillTodo)
	}

	doneB, err := s.CompleteTask(ctx, b.ID.String())
	if err != nil {
		t.Fatalf("CompleteTask(B): %v", err)
	}
	if doneB.Status != models.StatusDone || doneB.CompletedAt == nil {
		t.Errorf("B = %s completedAt=%v", doneB.Status, doneB.CompletedAt)
	}

	doneA, err := s.CompleteTask(ctx, a.ID.String())
	if err != nil {
		t.Fatalf("CompleteTask(A) after B: %v", err)
	}
	if doneA.Status != models.StatusDone || doneA.CompletedAt == nil {
		t.Errorf("A not done")
	}

	want := []ports.TaskEventType{ports.TaskCreated, ports.TaskSubtaskAdded, ports.TaskCompleted, ports.TaskCompleted}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCompletedTaskIsImmutable(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	c := mustCreate(t, s, dto.CreateTaskRequest{Title: "C", Description: "keep"})
	done, err := s.CompleteTask(ctx, c.ID.String())
	if err != nil {
		t.Fatalf("CompleteTask(C): %v", err)
	}

	if _, err := s.UpdateTask(ctx, c.ID.String(), &dto.UpdateTaskRequest{Title: sptr("x")}); !errors.Is(err, services.ErrInvalidState) {
		t.Errorf("UpdateTask(done) = %v, want InvalidState", err)
	}
	if err := s.DeleteTask(ctx, c.ID.String()); !errors.Is(err, services.ErrInvalidState) {
		t.Errorf("DeleteTask(done) = %v, want InvalidState", err)
	}
	if _, err := s.CompleteTask(ctx, c.ID.String()); !errors.Is(err, services.ErrAlreadyCompleted) {
		t.Errorf("CompleteTask(done) = %v, want ErrAlreadyCompleted", err)
	}
	if _, err := s.AddSubtask(ctx, c.ID.String(), &dto.AddSubtaskRequest{Title: "late"}); !errors.Is(err, services.ErrParentCompleted) {
		t.Errorf("AddSubtask(done) = %v, want ErrParentCompleted", err)
	}

	after, _ := s.GetTask(ctx, c.ID.String())
	if after.Title != "C" || after.Description != "keep" || after.Status != models.StatusDone {
		t.Errorf("done task changed: %+v", after)
	}
	if !after.CompletedAt.Equal(*done.CompletedAt) {
		t.Errorf("completedAt moved from %v to %v", done.CompletedAt, after.CompletedAt)
	}
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	if err := s.DeleteTask(ctx, "nonexistent-id"); !errors.Is(err, services.ErrTaskNotFound) {
		t.Errorf("DeleteTask(nonexistent) = %v, want ErrTaskNotFound", err)
	}

	root := mustCreate(t, s, dto.CreateTaskRequest{
		Title:    "root",
		Subtasks: []dto.CreateTaskRequest{{Title: "child"}},
	})
	childID := root.Subtasks[0].ID.String()

	if err := s.DeleteTask(ctx, root.ID.String()); err != nil {
		t.Fatalf("DeleteTask(root): %v", err)
	}
	if _, err := s.GetTask(ctx, childID); !errors.Is(err, services.ErrTaskNotFound) {
		t.Errorf("subtask survived parent deletion: %v", err)
	}
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.UpdateTaskRequest
		wantErr string
		check   func(t *testing.T, task *models.Task)
	}{
		{
			name: "title and description",
			req:  dto.UpdateTaskRequest{Title: sptr(" New "), Description: sptr("details")},
			check: func(t *testing.T, task *models.Task) {
				if task.Title != "New" || task.Description != "details" {
					t.Errorf("got %q / %q", task.Title, task.Description)
				}
				if task.Priority == nil || *task.Priority != 7 {
					t.Errorf("priority touched: %v", task.Priority)
				}
			},
		},
		{
			name: "set priority",
			req:  dto.UpdateTaskRequest{Priority: dto.SetPriority(1.5)},
			check: func(t *testing.T, task *models.Task) {
				if task.Priority == nil || *task.Priority != 1.5 {
					t.Errorf("priority = %v", task.Priority)
				}
			},
		},
		{
			name: "clear priority",
			req:  dto.UpdateTaskRequest{Priority: dto.ClearPriority()},
			check: func(t *testing.T, task *models.Task) {
				if task.Priority != nil {
					t.Errorf("priority = %v, want nil", *task.Priority)
				}
			},
		},
		{
			name: "same status is a no-op",
			req:  dto.UpdateTaskRequest{Status: sptr("todo")},
			check: func(t *testing.T, task *models.Task) {
				if task.Status != models.StatusTodo {
					t.Errorf("status = %s", task.Status)
				}
			},
		},
		{name: "status transition rejected", req: dto.UpdateTaskRequest{Status: sptr("done")}, wantErr: "status"},
		{name: "unknown status", req: dto.UpdateTaskRequest{Status: sptr("archived")}, wantErr: "status"},
		{name: "blank title", req: dto.UpdateTaskRequest{Title: sptr("  ")}, wantErr: "title"},
		{name: "NaN priority", req: dto.UpdateTaskRequest{Priority: dto.SetPriority(math.NaN())}, wantErr: "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService()
			task := mustCreate(t, s, dto.CreateTaskRequest{Title: "Old", Priority: fptr(7)})

			updated, err := s.UpdateTask(ctx, task.ID.String(), &tt.req)
			if tt.wantErr != "" {
				var verr *services.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if _, ok := verr.Fields[tt.wantErr]; !ok {
					t.Errorf("fields = %v, want key %q", verr.Fields, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateTask: %v", err)
			}
			tt.check(t, updated)

			stored, _ := s.GetTask(ctx, task.ID.String())
			tt.check(t, stored)
			if !stored.CreatedAt.Equal(task.CreatedAt) || stored.ID != task.ID {
				t.Errorf("immutable fields changed")
			}
		})
	}
}

func TestListTasksFilters(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	for _, req := range []dto.CreateTaskRequest{
		{Title: "Foo bar", Priority: fptr(5)},
		{Title: "xfooy", Priority: fptr(10)},
		{Title: "bar", Priority: fptr(7)},
		{Title: "low", Priority: fptr(4.99)},
		{Title: "none"},
	} {
		mustCreate(t, s, req)
	}

	titles := func(tasks []*models.Task) []string {
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.Title
		}
		return out
	}

	tests := []struct {
		name   string
		filter dto.TaskFilterRequest
		want   []string
	}{
		{"priority range inclusive", dto.TaskFilterRequest{PriorityMin: "5", PriorityMax: "10"}, []string{"Foo bar", "xfooy", "bar"}},
		{"title substring", dto.TaskFilterRequest{Title: "foo"}, []string{"Foo bar", "xfooy"}},
		{"sorted desc", dto.TaskFilterRequest{SortBy: "priority", Order: "desc", PriorityMin: "5"}, []string{"xfooy", "bar", "Foo bar"}},
		{"no matches", dto.TaskFilterRequest{Status: "done"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTasks(ctx, &tt.filter)
			if err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			gotTitles := titles(got)
			if len(gotTitles) != len(tt.want) {
				t.Fatalf("got %v, want %v", gotTitles, tt.want)
			}
			for i := range tt.want {
				if gotTitles[i] != tt.want[i] {
					t.Errorf("got %v, want %v", gotTitles, tt.want)
					break
				}
			}
		})
	}

	var verr *services.ValidationError
	if _, err := s.ListTasks(ctx, &dto.TaskFilterRequest{PriorityMin: "high"}); !errors.As(err, &verr) {
		t.Errorf("bad priorityMin: err = %v, want ValidationError", err)
	}
}

func TestListTasksCacheInvalidation(t *testing.T) {
	cache := newMapCache()
	s := newTaskService(memory.NewTaskRepository(), cache, nil)
	ctx := context.Background()

	mustCreate(t, s, dto.CreateTaskRequest{Title: "first"})
	if first, _ := s.ListTasks(ctx, nil); len(first) != 1 {
		t.Fatalf("len = %d, want 1", len(first))
	}
	if cache.size() != 1 {
		t.Fatalf("list result not cached")
	}

	mustCreate(t, s, dto.CreateTaskRequest{Title: "second"})
	second, _ := s.ListTasks(ctx, nil)
	if len(second) != 2 {
		t.Errorf("stale cache served: len = %d", len(second))
	}
	if cache.gen != 2 {
		t.Errorf("generation = %d, want 2", cache.gen)
	}
}

func TestListTasksRacingWriteIsNotCached(t *testing.T) {
	repo := newGatedRepo()
	s := newTaskService(repo, newMapCache(), nil)
	ctx := context.Background()

	done := make(chan []*models.Task)
	go func() {
		tasks, err := s.ListTasks(ctx, nil)
		if err != nil {
			t.Errorf("ListTasks during write: %v", err)
		}
		done <- tasks
	}()

	<-repo.loaded
	mustCreate(t, s, dto.CreateTaskRequest{Title: "written mid-list"})
	close(repo.release)
	if early := <-done; len(early) != 0 {
		t.Fatalf("list that read before the write returned %d tasks", len(early))
	}

	after, err := s.ListTasks(ctx, nil)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(after) != 1 || after[0].Title != "written mid-list" {
		t.Errorf("list after the write = %d tasks, want the new one", len(after))
	}
}

func TestListTasksLoadSurvivesCallerCancel(t *testing.T) {
	repo := newGatedRepo()
	cache := newMapCache()
	s := newTaskService(repo, cache, nil)
	mustCreate(t, s, dto.CreateTaskRequest{Title: "kept"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-repo.loaded
		cancel()
		close(repo.release)
	}()

	tasks, err := s.ListTasks(ctx, nil)
	if err != nil {
		t.Fatalf("ListTasks with cancelled caller: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("len = %d, want 1", len(tasks))
	}
	if cache.size() != 1 {
		t.Errorf("shared load was not cached")
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	s := newTaskService(memory.NewTaskRepository(), nil, pub)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	task, err := s.CreateTask(context.Background(), &dto.CreateTaskRequest{Title: "resilient"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if !task.CreatedAt.Equal(s.now()) {
		t.Errorf("CreatedAt = %v", task.CreatedAt)
	}
	if len(pub.types()) != 1 {
		t.Errorf("publish not attempted")
	}
}
