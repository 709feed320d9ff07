// Package apperror defines the error taxonomy shared by services and mapped
// to HTTP statuses at the handler boundary.
package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error carries an HTTP status, a message safe to return to the caller, and
// an internal reason meant for logs only. All not-found conditions on the
// redirect path (absent, inactive, expired, host mismatch) surface the same
// uniform message so probing cannot distinguish them.
type Error struct {
	Status  int
	Message string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Reason)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func BadRequest(message string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: fiber.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: fiber.StatusForbidden, Message: message}
}

// NotFound returns a uniform not-found error with an internal reason.
func NotFound(message, reason string) *Error {
	return &Error{Status: fiber.StatusNotFound, Message: message, Reason: reason}
}

func Conflict(message string) *Error {
	return &Error{Status: fiber.StatusConflict, Message: message}
}

func Internal(err error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Message: "internal server error", Err: err}
}
