package query

import (
	"sort"
	"strings"
	"time"

	"task-tracker/domain/models"
)

// Matches reports whether t satisfies every filter in q (AND logic).
func (q TaskQuery) Matches(t *models.Task) bool {
	if q.Status != "" && string(t.Status) != q.Status {
		return false
	}
	if q.PriorityMin != nil || q.PriorityMax != nil {
		if t.Priority == nil {
			return false
		}
		if q.PriorityMin != nil && *t.Priority < *q.PriorityMin {
			return false
		}
		if q.PriorityMax != nil && *t.Priority > *q.PriorityMax {
			return false
		}
	}
	if q.TitleContains != "" &&
		!strings.Contains(strings.ToLower(t.Title), strings.ToLower(q.TitleContains)) {
		return false
	}
	return true
}

// Filter returns the tasks matching q, keeping their order.
func (q TaskQuery) Filter(tasks []*models.Task) []*models.Task {
	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Sort orders tasks in place by q.SortBy. It is stable, and a no-op when no
// sort field is set. Missing values sort first ascending and last descending.
func (q TaskQuery) Sort(tasks []*models.Task) {
	if q.SortBy == "" {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		c := compareField(tasks[i], tasks[j], q.SortBy)
		if q.Descending() {
			return c > 0
		}
		return c < 0
	})
}

func compareField(a, b *models.Task, field string) int {
	switch field {
	case FieldTitle:
		return strings.Compare(a.Title, b.Title)
	case FieldDescription:
		return strings.Compare(a.Description, b.Description)
	case FieldStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case FieldPriority:
		return compareFloatPtr(a.Priority, b.Priority)
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case FieldCompletedAt:
		return compareTimePtr(a.CompletedAt, b.CompletedAt)
	default:
		return 0
	}
}

func compareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
