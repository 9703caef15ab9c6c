// handlers/errors.go
package handlers

import (
	"errors"

	"holder-contest-system/services"
	"holder-contest-system/store"

	"github.com/gofiber/fiber/v2"
)

// writeError maps the service error taxonomy to a status and a terse message.
func writeError(c *fiber.Ctx, err error) error {
	status, msg := fiber.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		status, msg = fiber.StatusBadRequest, "that does not look like a valid wallet address"
	case errors.Is(err, services.ErrInvalidDays):
		status, msg = fiber.StatusBadRequest, "contest length must be between 1 and 36500 days"
	case errors.Is(err, services.ErrOracleUnavailable):
		status, msg = fiber.StatusServiceUnavailable, "price or balance data is unavailable right now, try again later"
	case errors.Is(err, services.ErrNotFound):
		status, msg = fiber.StatusNotFound, "not found"
	case errors.Is(err, services.ErrContestNotLive):
		status, msg = fiber.StatusConflict, "the contest is not live"
	case errors.Is(err, services.ErrNotVerified):
		status, msg = fiber.StatusConflict, "verify a qualifying wallet before joining"
	case errors.Is(err, store.ErrVersionConflict):
		status, msg = fiber.StatusConflict, "contest changed concurrently, retry"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
