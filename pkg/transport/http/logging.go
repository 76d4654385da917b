package http

import (
	"log/slog"
	"net/http"
	"time"
)

// RequestLogger is HTTP middleware that emits one structured log entry
// per request. The bridge already logs lifecycle detail for bridged
// endpoints; this middleware covers everything else mounted on the same
// router, such as health and metrics handlers.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			logger.LogAttrs(r.Context(), slog.LevelDebug, "http request",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
