package middleware

import (
	"errors"

	"task-tracker/pkg/logger"
	"task-tracker/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors that escaped a handler, including fiber's own
// routing errors, in the standard error envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := utils.ErrCodeInternalError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
			switch code {
			case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
				errCode = utils.ErrCodeBadRequest
			case fiber.StatusNotFound:
				errCode = utils.ErrCodeNotFound
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "Unhandled error", "error", err, "path", c.Path())
		}

		return utils.ErrorResponse(c, code, errCode, message, nil)
	}
}
