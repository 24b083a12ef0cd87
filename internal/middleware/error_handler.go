package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/apperr"
	"github.com/rajivgeraev/bookswap-api/internal/logging"
)

// ErrorHandler переводит ошибки ядра в HTTP-ответы
func ErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		body := fiber.Map{"error": err.Error()}

		var (
			fiberErr      *fiber.Error
			validationErr *apperr.ValidationError
		)

		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			body["error"] = fiberErr.Message
		case errors.As(err, &validationErr):
			code = fiber.StatusBadRequest
			body["field"] = validationErr.Field
		case errors.Is(err, apperr.ErrPermission):
			code = fiber.StatusForbidden
		case errors.Is(err, apperr.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, apperr.ErrInvalidState):
			code = fiber.StatusConflict
		case errors.Is(err, apperr.ErrTransient):
			code = fiber.StatusServiceUnavailable
			body["error"] = "temporary storage failure, retry later"
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
			if code == fiber.StatusInternalServerError {
				body["error"] = "internal server error"
			}
		}

		return c.Status(code).JSON(body)
	}
}
