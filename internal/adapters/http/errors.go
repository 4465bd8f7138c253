package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, no_participants_resolved, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// planError maps a planner error to a response. Only a session with nobody
// located is a user-facing failure; everything else is an internal error.
func planError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNoParticipantsResolved):
		return newError(c, fiber.StatusUnprocessableEntity, "no_participants_resolved", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		return errNotFound(c, "user not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return newError(c, fiber.StatusRequestTimeout, "timeout", "planning did not finish in time")
	default:
		logging.FromContext(c.UserContext()).Error("planning failed", "error", err)
		return errInternal(c, "planning failed")
	}
}
