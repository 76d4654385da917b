package http

import (
	"log/slog"
	"net/http"
)

// Recovery is HTTP middleware that catches panics escaping the handler
// and converts them to a 500 response when nothing has been written
// yet. The server keeps accepting requests after a recovered panic.
// Panics inside middleware and handler stages never reach this point;
// the lifecycle engine recovers them itself.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
					)
					writeTransportError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
