package query

import (
	"errors"
	"testing"
	"time"

	"task-tracker/domain/dto"
	"task-tracker/domain/models"
)

func ptr(v float64) *float64 { return &v }

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.TaskFilterRequest
		wantField string
		check     func(t *testing.T, q TaskQuery)
	}{
		{
			name: "empty request",
			req:  dto.TaskFilterRequest{},
			check: func(t *testing.T, q TaskQuery) {
				if q.PriorityMin != nil || q.PriorityMax != nil || q.SortBy != "" || q.Order != Asc {
					t.Errorf("unexpected query %+v", q)
				}
			},
		},
		{
			name: "priority range",
			req:  dto.TaskFilterRequest{PriorityMin: "2", PriorityMax: " 4.5 "},
			check: func(t *testing.T, q TaskQuery) {
				if q.PriorityMin == nil || *q.PriorityMin != 2 {
					t.Errorf("PriorityMin = %v", q.PriorityMin)
				}
				if q.PriorityMax == nil || *q.PriorityMax != 4.5 {
					t.Errorf("PriorityMax = %v", q.PriorityMax)
				}
			},
		},
		{
			name: "descending order is case-insensitive",
			req:  dto.TaskFilterRequest{SortBy: "priority", Order: "DESC"},
			check: func(t *testing.T, q TaskQuery) {
				if !q.Descending() {
					t.Errorf("Order = %q, want desc", q.Order)
				}
			},
		},
		{name: "non-numeric priorityMin", req: dto.TaskFilterRequest{PriorityMin: "abc"}, wantField: "priorityMin"},
		{name: "infinite priorityMax", req: dto.TaskFilterRequest{PriorityMax: "Inf"}, wantField: "priorityMax"},
		{name: "NaN priorityMin", req: dto.TaskFilterRequest{PriorityMin: "NaN"}, wantField: "priorityMin"},
		{name: "unknown sort field", req: dto.TaskFilterRequest{SortBy: "owner"}, wantField: "sortBy"},
		{name: "bad order", req: dto.TaskFilterRequest{Order: "up"}, wantField: "order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := FromRequest(&tt.req)
			if tt.wantField != "" {
				var fe *FieldError
				if !errors.As(err, &fe) {
					t.Fatalf("expected FieldError, got %v", err)
				}
				if fe.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", fe.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, q)
		})
	}
}

func TestMatches(t *testing.T) {
	task := &models.Task{Title: "Buy Milk", Status: models.StatusTodo, Priority: ptr(3)}
	noPriority := &models.Task{Title: "Walk dog", Status: models.StatusTodo}

	tests := []struct {
		name string
		q    TaskQuery
		task *models.Task
		want bool
	}{
		{"no filters", TaskQuery{}, task, true},
		{"status match", TaskQuery{Status: "todo"}, task, true},
		{"status mismatch", TaskQuery{Status: "done"}, task, false},
		{"min inclusive", TaskQuery{PriorityMin: ptr(3)}, task, true},
		{"max inclusive", TaskQuery{PriorityMax: ptr(3)}, task, true},
		{"below min", TaskQuery{PriorityMin: ptr(3.5)}, task, false},
		{"above max", TaskQuery{PriorityMax: ptr(2)}, task, false},
		{"range without priority", TaskQuery{PriorityMin: ptr(0)}, noPriority, false},
		{"title case-insensitive", TaskQuery{TitleContains: "milk"}, task, true},
		{"title mid-word", TaskQuery{TitleContains: "uy m"}, task, true},
		{"title is literal", TaskQuery{TitleContains: "B.y"}, task, false},
		{"AND semantics", TaskQuery{Status: "todo", TitleContains: "dog"}, task, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Matches(tt.task); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &models.Task{Title: "a", Priority: ptr(2), CreatedAt: base}
	b := &models.Task{Title: "b", CreatedAt: base.Add(time.Minute)}
	c := &models.Task{Title: "c", Priority: ptr(1), CreatedAt: base.Add(2 * time.Minute)}
	d := &models.Task{Title: "d", Priority: ptr(2), CreatedAt: base.Add(3 * time.Minute)}

	titles := func(tasks []*models.Task) string {
		s := ""
		for _, t := range tasks {
			s += t.Title
		}
		return s
	}

	tests := []struct {
		name string
		q    TaskQuery
		want string
	}{
		{"no sort keeps order", TaskQuery{}, "abcd"},
		{"priority asc, nil first, stable", TaskQuery{SortBy: FieldPriority, Order: Asc}, "bcad"},
		{"priority desc, nil last, stable", TaskQuery{SortBy: FieldPriority, Order: Desc}, "adcb"},
		{"title desc", TaskQuery{SortBy: FieldTitle, Order: Desc}, "dcba"},
		{"createdAt asc", TaskQuery{SortBy: FieldCreatedAt, Order: Asc}, "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := []*models.Task{a, b, c, d}
			tt.q.Sort(tasks)
			if got := titles(tasks); got != tt.want {
				t.Errorf("order = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKeyIsCanonical(t *testing.T) {
	q1, _ := FromRequest(&dto.TaskFilterRequest{PriorityMin: "1.0", Title: "Milk"})
	q2, _ := FromRequest(&dto.TaskFilterRequest{PriorityMin: "1", Title: "milk", Order: "asc"})
	if q1.CacheKey() != q2.CacheKey() {
		t.Errorf("keys differ: %q vs %q", q1.CacheKey(), q2.CacheKey())
	}

	q3, _ := FromRequest(&dto.TaskFilterRequest{Status: "done"})
	if q1.CacheKey() == q3.CacheKey() {
		t.Errorf("distinct queries share key %q", q1.CacheKey())
	}
}
