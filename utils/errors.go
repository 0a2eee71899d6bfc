package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError carries the HTTP status and client-facing message of a failed operation.
// Err, when set, is the underlying cause and is only logged.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func BadRequest(message string) *AppError {
	return newAppError(fiber.StatusBadRequest, message)
}

func Unauthenticated(message string) *AppError {
	return newAppError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return newAppError(fiber.StatusForbidden, message)
}

func NotFound(message string) *AppError {
	return newAppError(fiber.StatusNotFound, message)
}

func Conflict(message string) *AppError {
	return newAppError(fiber.StatusConflict, message)
}

func RateLimited(message string) *AppError {
	return newAppError(fiber.StatusTooManyRequests, message)
}

func Unavailable(message string) *AppError {
	return newAppError(fiber.StatusServiceUnavailable, message)
}

// Internal hides err from the client behind a generic message.
func Internal(err error) *AppError {
	return &AppError{Status: fiber.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// StatusOf returns the HTTP status for err and the message safe to show the client.
func StatusOf(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
