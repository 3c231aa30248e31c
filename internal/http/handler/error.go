package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docintake/internal/http/middleware"
	"docintake/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps service errors to the error envelope. Causes of
// 500-class responses are logged, never returned.
func writeServiceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", verr.Reason)
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "you do not have access to this resource")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	}

	log.Error("request_failed",
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)

	var perr *service.ProcessingError
	switch {
	case errors.As(err, &perr):
		return writeError(c, fiber.StatusInternalServerError, "PROCESSING_ERROR",
			fmt.Sprintf("document %d could not be processed (%s step failed)", perr.DocumentID, perr.Stage))
	case errors.Is(err, service.ErrStorage):
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "the stored file is unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "VALIDATION_ERROR", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
