package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/routebind/routebind/pkg/debug"
	"github.com/routebind/routebind/pkg/endpoint"
	"github.com/routebind/routebind/pkg/lifecycle"
	"github.com/routebind/routebind/pkg/observability"
	"github.com/routebind/routebind/pkg/record"
)

// Bridge binds endpoint builds onto a chi router. Each build's path
// templates are translated into chi patterns and registered under each
// declared method, bound to the lifecycle entry point.
type Bridge struct {
	router      chi.Router
	engine      *lifecycle.Engine
	logger      *slog.Logger
	records     record.Store
	maxBodySize int64
	builds      []*endpoint.Build
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the structured logger used for request logging and
// request-scoped contexts.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithRecordStore enables flushing each request's record (identity,
// outcome, log sink) to the given store at disposal.
func WithRecordStore(s record.Store) Option {
	return func(b *Bridge) { b.records = s }
}

// WithMaxBodySize caps the accepted request body size in bytes.
func WithMaxBodySize(n int64) Option {
	return func(b *Bridge) { b.maxBodySize = n }
}

// NewBridge creates a Bridge over the given router.
func NewBridge(router chi.Router, opts ...Option) *Bridge {
	b := &Bridge{
		router:      router,
		maxBodySize: 10 << 20, // 10 MB
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.engine = lifecycle.New(b.logger)
	return b
}

// Register validates the given builds and binds them to the router. A
// build with an unknown endpoint kind or any other configuration defect
// is rejected here, before any of the batch is registered; invalid
// builds never reach request time.
func (b *Bridge) Register(builds ...*endpoint.Build) error {
	for _, build := range builds {
		if err := endpoint.ValidateBuild(build); err != nil {
			return err
		}
	}

	for _, build := range builds {
		for _, tmpl := range build.Paths {
			pattern := TranslatePattern(tmpl, build.Params)
			for _, method := range build.Methods {
				b.router.MethodFunc(method, pattern, b.handle(build))
				debug.Log("transport", "route bound",
					"method", method,
					"pattern", pattern,
					"kind", string(build.Kind))
			}
		}
		b.builds = append(b.builds, build)
	}

	sort.SliceStable(b.builds, func(i, j int) bool {
		return b.builds[i].Order < b.builds[j].Order
	})
	return nil
}

// Builds returns the registered builds sorted by their display ordering
// key.
func (b *Bridge) Builds() []*endpoint.Build {
	out := make([]*endpoint.Build, len(b.builds))
	copy(out, b.builds)
	return out
}

// handle is the lifecycle entry point for one build.
func (b *Bridge) handle(build *endpoint.Build) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := b.newContext(w, r)

		// The transport's disconnect notification sets the one-way
		// cancellation flag; every later write site re-reads it.
		stop := context.AfterFunc(r.Context(), c.Cancel)
		defer stop()

		body, err := readBody(w, r, b.maxBodySize)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeTransportError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeTransportError(w, http.StatusBadRequest, "reading request body: "+err.Error())
			return
		}

		req := &endpoint.Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Params: routeParams(r),
			Query:  r.URL.Query(),
			Header: r.Header,
			Body:   body,
		}

		bw := newBridgeWriter(w, c)
		start := time.Now()
		state, execErr := b.engine.Execute(r.Context(), build, c, req, bw)
		duration := time.Since(start)

		if bw.startedStreaming() {
			observability.StreamingConnections.Dec()
		}
		observability.LifecycleOutcomesTotal.WithLabelValues(string(state)).Inc()

		attrs := []slog.Attr{
			slog.String("request_id", c.ID()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("state", string(state)),
			slog.Duration("duration", duration),
		}
		if execErr != nil {
			attrs = append(attrs, slog.String("error", execErr.Error()))
			b.logger.LogAttrs(r.Context(), slog.LevelError, "request failed", attrs...)
		} else {
			b.logger.LogAttrs(r.Context(), slog.LevelInfo, "request finished", attrs...)
		}

		b.saveRecord(build, c, r, state, execErr, start, duration)
	}
}

func (b *Bridge) newContext(w http.ResponseWriter, r *http.Request) *endpoint.Context {
	if id := RequestIDFromContext(r.Context()); id != "" {
		return endpoint.NewContextWithID(id, w, r, b.logger)
	}
	return endpoint.NewContext(w, r, b.logger)
}

// saveRecord flushes the request's record to the configured store. The
// request context may already be done, so the save runs under its own
// short deadline.
func (b *Bridge) saveRecord(build *endpoint.Build, c *endpoint.Context, r *http.Request, state lifecycle.State, execErr error, start time.Time, duration time.Duration) {
	if b.records == nil {
		return
	}

	rec := &record.Record{
		ID:        c.ID(),
		Method:    r.Method,
		Path:      r.URL.Path,
		Kind:      string(build.Kind),
		State:     string(state),
		StartedAt: start,
		Duration:  duration,
		Logs:      c.Logs(),
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.records.Save(ctx, rec); err != nil {
		b.logger.Error("saving request record failed",
			slog.String("request_id", c.ID()),
			slog.String("error", err.Error()),
		)
		return
	}
	debug.Log("records", "request record saved", "request_id", c.ID(), "state", rec.State)
}

// routeParams extracts resolved path parameters from the chi route
// context.
func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

func readBody(w http.ResponseWriter, r *http.Request, maxSize int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	return io.ReadAll(r.Body)
}

// writeTransportError reports a transport-level defect (oversized or
// unreadable body) before the lifecycle starts, using the same envelope
// shape as normalized errors.
func writeTransportError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(endpoint.Error{
		Status: status,
		Body:   map[string]string{"error": message},
	})
}
