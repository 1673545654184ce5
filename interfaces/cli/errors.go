package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"task-tracker/domain/services"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidState = "INVALID_STATE"
	CodeUnavailable  = "UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error is a command failure with a stable machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Details[k])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// ExitCode returns 2 for internal errors, 1 for everything else.
func (e *Error) ExitCode() int {
	if e.Code == CodeInternal {
		return 2
	}
	return 1
}

func validationError(field, message string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Details: map[string]string{field: message}}
}

// fromService classifies a task service error.
func fromService(err error) error {
	if err == nil {
		return nil
	}

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return &Error{Code: CodeValidation, Message: "validation failed", Details: verr.Fields}
	case errors.Is(err, services.ErrTaskNotFound):
		return &Error{Code: CodeNotFound, Message: "task not found"}
	case errors.Is(err, services.ErrInvalidState):
		return &Error{Code: CodeInvalidState, Message: err.Error()}
	default:
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("internal error: %v", err)}
	}
}
