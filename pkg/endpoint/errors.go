package endpoint

import (
	"fmt"
	"net/http"
)

// Error is the normalized, transport-appropriate representation of a
// request-time failure: a numeric status, headers to apply, and a body.
// Handlers and middleware may return an *Error directly to control the
// representation; any other error value is normalized to a generic 500.
type Error struct {
	Status int         `json:"status"`
	Header http.Header `json:"headers,omitempty"`
	Body   any         `json:"body,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("endpoint error: status %d: %v", e.Status, e.Body)
}

// NewError creates an Error with the given status and body.
func NewError(status int, body any) *Error {
	return &Error{Status: status, Body: body}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, map[string]string{"error": message})
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, map[string]string{"error": message})
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, map[string]string{"error": message})
}

// Internal creates a 500 error.
func Internal(message string) *Error {
	return NewError(http.StatusInternalServerError, map[string]string{"error": message})
}
