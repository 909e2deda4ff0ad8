// FILE: internal/pkg/serverutils/error_middleware.go
package serverutils

import (
	"errors"

	"ai-interview-be/pkg/faults"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors escaping the controllers into a
// consistent JSON envelope. Tagged faults map to status codes by kind; fiber
// errors keep their own status.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		status := StatusForError(err)
		reason := faults.CodeOf(err)
		if reason != "" {
			return ctx.Status(status).JSON(ReasonResponse(status, reason, err.Error()))
		}
		return ctx.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}

// StatusForError maps the error taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	switch faults.KindOf(err) {
	case faults.KindUnauthorized:
		return fiber.StatusUnauthorized
	case faults.KindNotFound:
		return fiber.StatusNotFound
	case faults.KindPermanent:
		return fiber.StatusUnprocessableEntity
	case faults.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
