package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidState = errors.New("invalid task state")

	ErrTaskCompleted      = fmt.Errorf("%w: task is already completed and cannot be modified", ErrInvalidState)
	ErrIncompleteSubtasks = fmt.Errorf("%w: task has incomplete subtasks", ErrInvalidState)
	ErrAlreadyCompleted   = fmt.Errorf("%w: task is already completed", ErrInvalidState)
	ErrParentCompleted    = fmt.Errorf("%w: cannot add a subtask to a completed task", ErrInvalidState)
)

// ValidationError maps request field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}
