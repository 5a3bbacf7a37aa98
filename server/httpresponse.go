package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"xhs-insight/ingest"
	"xhs-insight/services"
	"xhs-insight/session"
)

// envelope is the JSON shape of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func applySuccess(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(envelope{Success: true, Data: data})
}

func applyError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(envelope{Success: false, Error: message})
}

// applyErrorFor maps known errors to a status code.
func applyErrorFor(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrNoReport):
		return applyError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrStale):
		return applyError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnparseable), errors.Is(err, services.ErrNoPosts):
		return applyError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ingest.ErrTooLarge):
		return applyError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &fe):
		return applyError(c, fe.Code, fe.Message)
	default:
		return applyError(c, fiber.StatusInternalServerError, "unexpected error")
	}
}

func errorsIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
