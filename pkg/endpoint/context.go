package endpoint

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// LogEntry is one line of a request's ordered log sink.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Context is the per-request state container. It carries the request
// identity, references to the transport handles, a one-way cancellation
// flag, a flat keyed state store for cross-stage data, and an ordered
// log sink bound to this request.
//
// A Context is owned by the goroutine serving its request. The only
// cross-goroutine access is Cancel, invoked from the transport's
// disconnect notification, so all mutable state sits behind one mutex.
// After Dispose the context is inert: state reads return nothing and
// further writes are dropped.
type Context struct {
	id     string
	w      http.ResponseWriter
	r      *http.Request
	logger *slog.Logger

	mu        sync.Mutex
	cancelled bool
	disposed  bool
	state     map[string]any
	logs      []LogEntry
}

// NewContext creates a Context bound to the given transport handles,
// assigns it a fresh request ID, and initializes the cancellation flag
// to false. The logger gains a request_id attribute; a nil logger falls
// back to slog.Default.
func NewContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *Context {
	return NewContextWithID(NewRequestID(), w, r, logger)
}

// NewContextWithID creates a Context with a caller-supplied identity,
// for transports that already assigned a request ID upstream.
func NewContextWithID(id string, w http.ResponseWriter, r *http.Request, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		id:     id,
		w:      w,
		r:      r,
		logger: logger.With(slog.String("request_id", id)),
		state:  make(map[string]any),
	}
}

// ID returns the unique request identifier.
func (c *Context) ID() string { return c.id }

// HTTPRequest returns the transport request handle.
func (c *Context) HTTPRequest() *http.Request { return c.r }

// HTTPWriter returns the transport response handle. Components must
// check Cancelled before every write through it.
func (c *Context) HTTPWriter() http.ResponseWriter { return c.w }

// Logger returns the request-scoped structured logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Get reads a value from the per-request state store.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, false
	}
	v, ok := c.state[key]
	return v, ok
}

// Set stores a value in the per-request state store. Writes after
// disposal are dropped.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.state[key] = value
}

// Log appends one line to the request's ordered log sink.
func (c *Context) Log(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.logs = append(c.logs, LogEntry{Time: time.Now(), Message: message})
}

// Logs returns a copy of the log sink in append order.
func (c *Context) Logs() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogEntry, len(c.logs))
	copy(out, c.logs)
	return out
}

// Cancel sets the cancellation flag. The transition is one-way and
// idempotent: the first call flips false to true, later calls are
// no-ops. It is the only method safe to call from outside the request's
// own goroutine.
func (c *Context) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
}

// Cancelled reports whether the transport has signalled client
// disconnect. Every component reads this before any side-effecting
// write.
func (c *Context) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Dispose releases the context's resources. It performs no transport
// I/O; after disposal all handles to the context must be treated as
// inert. Dispose is idempotent.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.state = nil
}

// Disposed reports whether Dispose has run.
func (c *Context) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
