package lifecycle

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/routebind/routebind/pkg/endpoint"
)

// Normalize converts a failure raised by any lifecycle stage into a
// structured error representation. An *endpoint.Error passes through
// (a zero status is defaulted to 500); anything else becomes a 500
// carrying the error message. Normalize never raises: a panic while
// normalizing yields the fixed fallback representation.
func Normalize(c *endpoint.Context, build *endpoint.Build, cause error) (rep *endpoint.Error) {
	defer func() {
		if r := recover(); r != nil {
			rep = FallbackError()
		}
	}()

	c.Logger().Error("stage failed",
		slog.String("kind", string(build.Kind)),
		slog.String("error", cause.Error()),
	)
	c.Log("stage failed: " + cause.Error())

	var e *endpoint.Error
	if errors.As(cause, &e) {
		if e.Status == 0 {
			return &endpoint.Error{
				Status: http.StatusInternalServerError,
				Header: e.Header,
				Body:   e.Body,
			}
		}
		return e
	}

	return endpoint.Internal(cause.Error())
}

// FallbackError is the fixed representation used when producing an
// error representation itself fails.
func FallbackError() *endpoint.Error {
	return &endpoint.Error{
		Status: http.StatusInternalServerError,
		Body:   map[string]string{"error": "internal error"},
	}
}
