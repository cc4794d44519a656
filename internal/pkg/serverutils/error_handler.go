package serverutils

import (
	"errors"

	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/rag/session"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a domain error to an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	var ve *ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, rag.ErrUnsupportedFormat), errors.Is(err, rag.ErrEmptyInput):
		return fiber.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, rag.ErrCapacityExceeded):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders errors returned by handlers in the response
// envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
