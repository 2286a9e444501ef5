package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/logger"
	"github.com/example/blazehunter/internal/services"
)

// respondError writes {"error": msg} with the status matching err.
func respondError(c *fiber.Ctx, err error) error {
	status := services.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		log := logger.With("http")
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ErrorHandler is the fiber error handler. Fiber errors keep their code; all
// other errors go through the service error mapping.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return respondError(c, err)
}
