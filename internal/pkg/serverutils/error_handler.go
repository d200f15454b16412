package serverutils

import (
	"errors"

	"riverai-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps service-level errors onto the standard
// {success, code, message} envelope. Handlers that already wrote a response
// (e.g. streaming) are left alone.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, apperror.ErrInvalidInput):
			code = fiber.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			code = fiber.StatusUnauthorized
		case errors.Is(err, apperror.ErrConfiguration):
			code = fiber.StatusServiceUnavailable
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		return ctx.Status(code).JSON(fiber.Map{
			"success": false,
			"code":    code,
			"message": err.Error(),
		})
	}
}
