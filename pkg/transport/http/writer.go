package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/routebind/routebind/pkg/debug"
	"github.com/routebind/routebind/pkg/endpoint"
	"github.com/routebind/routebind/pkg/lifecycle"
	"github.com/routebind/routebind/pkg/observability"
)

// writerState tracks the terminal-write guard of a bridgeWriter.
type writerState int

const (
	writerIdle      writerState = iota // no writes yet
	writerStreaming                    // preamble committed, frames may follow
	writerCompleted                    // terminal write done
)

// bridgeWriter implements lifecycle.ResponseWriter over net/http. It
// owns the single-terminal-write guard and checks the request's
// cancellation flag before every write, returning
// lifecycle.ErrCancelled instead of touching the wire.
type bridgeWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
	c  *endpoint.Context

	mu    sync.Mutex
	state writerState
}

var _ lifecycle.ResponseWriter = (*bridgeWriter)(nil)

func newBridgeWriter(w http.ResponseWriter, c *endpoint.Context) *bridgeWriter {
	return &bridgeWriter{
		w:  w,
		rc: http.NewResponseController(w),
		c:  c,
	}
}

// WriteResponse materializes a single-response success: the merged
// header set is applied, a permissive cross-origin header is always
// set, explicitly set names are published as the CORS exposure list,
// and the body is serialized as JSON unless an explicit non-JSON
// content type asks for verbatim output. An absent body produces an
// empty 200.
func (b *bridgeWriter) WriteResponse(ctx context.Context, hdr *lifecycle.HeaderSet, body any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != writerIdle {
		return errors.New("terminal write already occurred")
	}
	if b.c.Cancelled() {
		return lifecycle.ErrCancelled
	}
	b.state = writerCompleted

	h := b.w.Header()
	applyHeader(h, hdr.Header())
	h.Set("Access-Control-Allow-Origin", "*")
	if names := hdr.Names(); len(names) > 0 {
		h.Set("Access-Control-Expose-Headers", strings.Join(names, ","))
	}

	if body == nil {
		b.w.WriteHeader(http.StatusOK)
		return nil
	}

	if ct := hdr.Get("Content-Type"); ct != "" && !isJSONMediaType(ct) {
		b.w.WriteHeader(http.StatusOK)
		return writeVerbatim(b.w, body)
	}

	h.Set("Content-Type", "application/json")
	b.w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(b.w).Encode(body); err != nil {
		return fmt.Errorf("encoding response body: %w", err)
	}
	return nil
}

// WriteError writes a normalized error representation as the terminal
// response. The representation is serialized before the status line is
// committed so a marshal failure can still fall back to the fixed
// internal-error body.
func (b *bridgeWriter) WriteError(ctx context.Context, rep *endpoint.Error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != writerIdle {
		return errors.New("terminal write already occurred")
	}
	if b.c.Cancelled() {
		return lifecycle.ErrCancelled
	}
	b.state = writerCompleted

	data, err := json.Marshal(rep)
	if err != nil {
		rep = lifecycle.FallbackError()
		data, _ = json.Marshal(rep)
	}

	h := b.w.Header()
	applyHeader(h, rep.Header)
	h.Set("Content-Type", "application/json")
	b.w.WriteHeader(rep.Status)
	if _, err := b.w.Write(data); err != nil {
		return fmt.Errorf("writing error body: %w", err)
	}
	return nil
}

// StartStream commits the streaming preamble: no-cache, event-stream
// content type, permissive cross-origin, keep-alive, flushed to the
// wire before the first item is produced.
func (b *bridgeWriter) StartStream(ctx context.Context, hdr *lifecycle.HeaderSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != writerIdle {
		return errors.New("stream already started or response written")
	}
	if b.c.Cancelled() {
		return lifecycle.ErrCancelled
	}
	b.state = writerStreaming

	h := b.w.Header()
	applyHeader(h, hdr.Header())
	h.Set("Cache-Control", "no-cache")
	h.Set("Content-Type", "text/event-stream")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Connection", "keep-alive")
	b.w.WriteHeader(http.StatusOK)

	observability.StreamingConnections.Inc()
	return b.flush()
}

// WriteEvent writes one framed event and flushes it immediately.
func (b *bridgeWriter) WriteEvent(ctx context.Context, item any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != writerStreaming {
		return errors.New("stream is not open")
	}
	if b.c.Cancelled() {
		return lifecycle.ErrCancelled
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := fmt.Fprintf(b.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}

	observability.StreamEventsTotal.Inc()
	if debug.TraceIsEnabled("streaming") {
		debug.Trace("streaming", "event written",
			"request_id", b.c.ID(),
			"payload", debug.Truncate(string(data), 256))
	}
	return b.flush()
}

// WriteStreamError serializes a normalized error's body as one final
// framed event. Status line and headers are already committed to the
// wire and are not touched; after this frame no further writes occur.
func (b *bridgeWriter) WriteStreamError(ctx context.Context, rep *endpoint.Error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != writerStreaming {
		return errors.New("stream is not open")
	}
	if b.c.Cancelled() {
		return lifecycle.ErrCancelled
	}
	b.state = writerCompleted

	data, err := json.Marshal(rep.Body)
	if err != nil {
		data, _ = json.Marshal(lifecycle.FallbackError().Body)
	}
	if _, err := fmt.Fprintf(b.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing stream error: %w", err)
	}
	return b.flush()
}

// startedStreaming reports whether the preamble reached the wire.
func (b *bridgeWriter) startedStreaming() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != writerIdle && b.w.Header().Get("Content-Type") == "text/event-stream"
}

// flush pushes buffered output to the client. Transports without
// incremental flushing are tolerated.
func (b *bridgeWriter) flush() error {
	if err := b.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("flushing: %w", err)
	}
	return nil
}

// applyHeader copies accumulated values onto the transport header map.
func applyHeader(dst http.Header, src http.Header) {
	for k, vv := range src {
		dst[http.CanonicalHeaderKey(k)] = vv
	}
}

// isJSONMediaType reports whether the content type names JSON,
// case-insensitively and ignoring parameters.
func isJSONMediaType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return strings.EqualFold(mt, "application/json")
}

// writeVerbatim sends the body without JSON encoding. Strings and byte
// slices are written as-is; anything else is formatted with %v.
func writeVerbatim(w io.Writer, body any) error {
	var err error
	switch v := body.(type) {
	case string:
		_, err = io.WriteString(w, v)
	case []byte:
		_, err = w.Write(v)
	case json.RawMessage:
		_, err = w.Write(v)
	default:
		_, err = fmt.Fprintf(w, "%v", v)
	}
	if err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	return nil
}
