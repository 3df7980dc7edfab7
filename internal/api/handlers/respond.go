// Package handlers is the HTTP boundary: request decoding, typed-error to
// status-code mapping, and JSON responses. No business logic lives here.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/promptsim/backend/pkg/apperr"
	"github.com/promptsim/backend/pkg/logger"
)

// respondError maps the error taxonomy onto status codes. Anything outside
// the taxonomy is a 500 with the error text, never a stack trace.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case apperr.IsNotFound(err):
		status = fiber.StatusNotFound
	case apperr.IsValidation(err):
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
