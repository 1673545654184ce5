package handlers

import (
	"encoding/json"
	"errors"
	"reflect"

	"task-tracker/domain/services"
	"task-tracker/pkg/logger"
	"task-tracker/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service error kinds onto HTTP responses. Unknown errors
// are logged and hidden behind a generic 500.
func respondError(c *fiber.Ctx, err error, msg string) error {
	ctx := c.UserContext()

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.WarnContext(ctx, msg, "errors", verr.Fields)
		return utils.ValidationErrorResponse(c, verr.Fields)
	case errors.Is(err, services.ErrTaskNotFound):
		logger.WarnContext(ctx, msg, "error", err)
		return utils.NotFoundResponse(c, "Task not found")
	case errors.Is(err, services.ErrInvalidState):
		logger.WarnContext(ctx, msg, "error", err)
		return utils.InvalidStateResponse(c, err.Error())
	default:
		logger.ErrorContext(ctx, msg, "error", err)
		return utils.InternalServerErrorResponse(c)
	}
}

// respondBodyError reports an undecodable request body as a validation
// failure, naming the offending field when the decoder knows it.
func respondBodyError(c *fiber.Ctx, err error) error {
	logger.WarnContext(c.UserContext(), "Invalid request body", "error", err)

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return utils.ValidationErrorResponse(c, map[string]string{
			typeErr.Field: "must be " + jsonKind(typeErr.Type),
		})
	}
	return utils.ValidationErrorResponse(c, map[string]string{
		"body": "must be a valid JSON object",
	})
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}
