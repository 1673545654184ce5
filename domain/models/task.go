package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

// IsValid reports whether s is one of the lifecycle states.
func (s Status) IsValid() bool {
	return s == StatusTodo || s == StatusDone
}

// Task is a unit of work. Subtasks are tasks owned by exactly one parent and
// are stored as rows pointing at that parent; Position keeps sibling order.
type Task struct {
	ID          uuid.UUID  `gorm:"primaryKey;type:uuid"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Position    int        `gorm:"not null;default:0"`
	Title       string     `gorm:"not null"`
	Description string
	Priority    *float64
	Status      Status    `gorm:"type:varchar(16);not null;default:'todo';index"`
	CreatedAt   time.Time `gorm:"not null;index"`
	CompletedAt *time.Time
	Subtasks    []*Task `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

func (t *Task) IsRoot() bool {
	return t.ParentID == nil
}

// HasIncompleteSubtasks checks direct children only.
func (t *Task) HasIncompleteSubtasks() bool {
	for _, st := range t.Subtasks {
		if st.Status != StatusDone {
			return true
		}
	}
	return false
}

// Walk visits t and every descendant in pre-order. Returning false from fn
// skips the children of the visited task.
func (t *Task) Walk(fn func(task *Task) bool) {
	if !fn(t) {
		return
	}
	for _, st := range t.Subtasks {
		st.Walk(fn)
	}
}

// Find returns the task with the given id in t's subtree, including t itself.
func (t *Task) Find(id uuid.UUID) *Task {
	var found *Task
	t.Walk(func(task *Task) bool {
		if found != nil {
			return false
		}
		if task.ID == id {
			found = task
			return false
		}
		return true
	})
	return found
}

// Clone returns a deep copy of the subtree rooted at t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	if t.ParentID != nil {
		pid := *t.ParentID
		out.ParentID = &pid
	}
	if t.Priority != nil {
		p := *t.Priority
		out.Priority = &p
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		out.CompletedAt = &ts
	}
	out.Subtasks = make([]*Task, len(t.Subtasks))
	for i, st := range t.Subtasks {
		out.Subtasks[i] = st.Clone()
	}
	return &out
}

// BuildTree links flat rows into trees. Rows whose parent is not among rows
// are returned as roots, in the order given; children keep Position order.
func BuildTree(rows []*Task) []*Task {
	byID := make(map[uuid.UUID]*Task, len(rows))
	for _, r := range rows {
		r.Subtasks = nil
		byID[r.ID] = r
	}

	var roots []*Task
	for _, r := range rows {
		if r.ParentID != nil {
			if parent, ok := byID[*r.ParentID]; ok {
				parent.Subtasks = append(parent.Subtasks, r)
				continue
			}
		}
		roots = append(roots, r)
	}

	for _, r := range rows {
		sortByPosition(r.Subtasks)
	}
	return roots
}

func sortByPosition(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})
}
