package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-tracker/domain/models"
	"task-tracker/domain/query"
	"task-tracker/domain/repositories"

	"github.com/google/uuid"
)

func newTask(title string) *models.Task {
	return &models.Task{
		ID:        uuid.New(),
		Title:     title,
		Status:    models.StatusTodo,
		CreatedAt: time.Now(),
	}
}

func TestCreateAndGetNested(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()

	root := newTask("root")
	child := newTask("child")
	root.Subtasks = []*models.Task{child}

	if err := repo.Create(ctx, root); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, child.ID)
	if err != nil {
		t.Fatalf("GetByID(child): %v", err)
	}
	if got.ParentID == nil || *got.ParentID != root.ID {
		t.Errorf("child ParentID = %v, want %v", got.ParentID, root.ID)
	}

	grand := newTask("grandchild")
	grand.ParentID = &child.ID
	if err := repo.Create(ctx, grand); err != nil {
		t.Fatalf("Create(grandchild): %v", err)
	}

	tree, _ := repo.GetByID(ctx, root.ID)
	if tree.Find(grand.ID) == nil {
		t.Errorf("grandchild not reachable from root")
	}
	if repo.Len() != 3 {
		t.Errorf("Len() = %d, want 3", repo.Len())
	}
}

func TestCreateUnknownParent(t *testing.T) {
	repo := NewTaskRepository()
	orphan := newTask("orphan")
	missing := uuid.New()
	orphan.ParentID = &missing

	err := repo.Create(context.Background(), orphan)
	if !errors.Is(err, repositories.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()
	task := newTask("original")
	_ = repo.Create(ctx, task)

	task.Title = "mutated after create"
	got, _ := repo.GetByID(ctx, task.ID)
	if got.Title != "original" {
		t.Errorf("stored task aliased caller value: %q", got.Title)
	}

	got.Title = "mutated after get"
	again, _ := repo.GetByID(ctx, task.ID)
	if again.Title != "original" {
		t.Errorf("stored task aliased returned value: %q", again.Title)
	}
}

func TestUpdateTouchesScalarsOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()
	root := newTask("root")
	root.Subtasks = []*models.Task{newTask("child")}
	_ = repo.Create(ctx, root)

	upd, _ := repo.GetByID(ctx, root.ID)
	upd.Title = "renamed"
	upd.Subtasks = nil
	if err := repo.Update(ctx, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := repo.GetByID(ctx, root.ID)
	if got.Title != "renamed" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Subtasks) != 1 {
		t.Errorf("subtasks changed by Update: %d", len(got.Subtasks))
	}

	if err := repo.Update(ctx, newTask("ghost")); !errors.Is(err, repositories.ErrTaskNotFound) {
		t.Errorf("Update(unknown) = %v", err)
	}
}

func TestDeleteRemovesSubtree(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()
	root := newTask("root")
	child := newTask("child")
	grand := newTask("grand")
	child.Subtasks = []*models.Task{grand}
	root.Subtasks = []*models.Task{child}
	sibling := newTask("sibling")
	_ = repo.Create(ctx, root)
	_ = repo.Create(ctx, sibling)

	if err := repo.Delete(ctx, child.ID); err != nil {
		t.Fatalf("Delete(child): %v", err)
	}
	if _, err := repo.GetByID(ctx, grand.ID); !errors.Is(err, repositories.ErrTaskNotFound) {
		t.Errorf("grandchild still present: %v", err)
	}
	got, _ := repo.GetByID(ctx, root.ID)
	if len(got.Subtasks) != 0 {
		t.Errorf("root still lists deleted child")
	}

	if err := repo.Delete(ctx, root.ID); err != nil {
		t.Fatalf("Delete(root): %v", err)
	}
	list, _ := repo.List(ctx, query.TaskQuery{})
	if len(list) != 1 || list[0].ID != sibling.ID {
		t.Errorf("List after delete = %v", list)
	}
	if err := repo.Delete(ctx, root.ID); !errors.Is(err, repositories.ErrTaskNotFound) {
		t.Errorf("second Delete = %v", err)
	}
}

func TestListReturnsRootsOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository()

	a := newTask("Alpha")
	b := newTask("beta milk")
	b.Status = models.StatusDone
	c := newTask("Gamma")
	c.Subtasks = []*models.Task{newTask("milk run")}
	for _, task := range []*models.Task{a, b, c} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		q    query.TaskQuery
		want []uuid.UUID
	}{
		{"insertion order", query.TaskQuery{}, []uuid.UUID{a.ID, b.ID, c.ID}},
		{"status", query.TaskQuery{Status: "done"}, []uuid.UUID{b.ID}},
		{"title does not match subtasks", query.TaskQuery{TitleContains: "MILK"}, []uuid.UUID{b.ID}},
		{"title desc", query.TaskQuery{SortBy: query.FieldTitle, Order: query.Desc}, []uuid.UUID{b.ID, c.ID, a.ID}},
		{"no match", query.TaskQuery{TitleContains: "zzz"}, []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.q)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("[%d] = %s, want %s", i, got[i].Title, tt.want[i])
				}
			}
		})
	}
}
