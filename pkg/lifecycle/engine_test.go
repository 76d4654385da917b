package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/routebind/routebind/pkg/endpoint"
)

// fakeWriter records the sequence of write calls the engine makes.
type fakeWriter struct {
	calls      []string
	headers    http.Header
	bodies     []any
	errorReps  []*endpoint.Error
	events     []any
	cancelFrom *endpoint.Context // if set, cancel after the first event write
}

func (f *fakeWriter) WriteResponse(ctx context.Context, hdr *HeaderSet, body any) error {
	f.calls = append(f.calls, "WriteResponse")
	f.headers = hdr.Header()
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeWriter) WriteError(ctx context.Context, rep *endpoint.Error) error {
	f.calls = append(f.calls, "WriteError")
	f.errorReps = append(f.errorReps, rep)
	return nil
}

func (f *fakeWriter) StartStream(ctx context.Context, hdr *HeaderSet) error {
	f.calls = append(f.calls, "StartStream")
	f.headers = hdr.Header()
	return nil
}

func (f *fakeWriter) WriteEvent(ctx context.Context, item any) error {
	f.calls = append(f.calls, "WriteEvent")
	f.events = append(f.events, item)
	if f.cancelFrom != nil {
		f.cancelFrom.Cancel()
	}
	return nil
}

func (f *fakeWriter) WriteStreamError(ctx context.Context, rep *endpoint.Error) error {
	f.calls = append(f.calls, "WriteStreamError")
	f.errorReps = append(f.errorReps, rep)
	return nil
}

func engineContext(t *testing.T) *endpoint.Context {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	return endpoint.NewContext(rec, req, nil)
}

func execute(t *testing.T, build *endpoint.Build, c *endpoint.Context, w ResponseWriter) (State, error) {
	t.Helper()
	eng := New(nil)
	req := &endpoint.Request{Method: "GET", Path: "/test"}
	return eng.Execute(context.Background(), build, c, req, w)
}

func TestExecuteSingleSuccess(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	var order []string
	build := &endpoint.Build{
		Kind:    endpoint.KindSingle,
		Methods: []string{"GET"},
		Paths:   []string{"/test"},
		Middleware: []endpoint.Middleware{
			func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (http.Header, error) {
				order = append(order, "mw1")
				return http.Header{"X-First": {"1"}}, nil
			},
			func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (http.Header, error) {
				order = append(order, "mw2")
				return http.Header{"X-Second": {"2"}}, nil
			},
		},
		Handler: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
			order = append(order, "handler")
			return &endpoint.Result{Body: map[string]string{"ok": "yes"}}, nil
		},
	}

	state, err := execute(t, build, c, w)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if state != StateCompleted {
		t.Errorf("state = %s, want %s", state, StateCompleted)
	}
	if !reflect.DeepEqual(order, []string{"mw1", "mw2", "handler"}) {
		t.Errorf("stage order = %v, want [mw1 mw2 handler]", order)
	}
	if !reflect.DeepEqual(w.calls, []string{"WriteResponse"}) {
		t.Errorf("writes = %v, want exactly one WriteResponse", w.calls)
	}
	if w.headers.Get("X-First") != "1" || w.headers.Get("X-Second") != "2" {
		t.Errorf("merged headers = %v, want both middleware headers", w.headers)
	}
	if !c.Disposed() {
		t.Error("context not disposed after Execute")
	}
}

func TestExecuteMiddlewareFailureShortCircuits(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	var laterRan bool
	build := &endpoint.Build{
		Kind: endpoint.KindSingle,
		Middleware: []endpoint.Middleware{
			func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (http.Header, error) {
				return nil, endpoint.Unauthorized("no token")
			},
			func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (http.Header, error) {
				laterRan = true
				return nil, nil
			},
		},
		Handler: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
			t.Error("handler must not run after middleware failure")
			return nil, nil
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateFailed {
		t.Errorf("state = %s, want %s", state, StateFailed)
	}
	if err == nil {
		t.Error("Execute should return the causing error")
	}
	if laterRan {
		t.Error("middleware after the failing stage must not run")
	}
	if !reflect.DeepEqual(w.calls, []string{"WriteError"}) {
		t.Errorf("writes = %v, want exactly one WriteError", w.calls)
	}
	if w.errorReps[0].Status != http.StatusUnauthorized {
		t.Errorf("error status = %d, want %d", w.errorReps[0].Status, http.StatusUnauthorized)
	}
}

func TestExecuteMiddlewarePanicBecomesError(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindSingle,
		Middleware: []endpoint.Middleware{
			func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (http.Header, error) {
				panic("middleware exploded")
			},
		},
		Handler: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
			return &endpoint.Result{}, nil
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateFailed {
		t.Errorf("state = %s, want %s", state, StateFailed)
	}
	if err == nil {
		t.Fatal("Execute should return the panic as an error")
	}
	if len(w.errorReps) != 1 || w.errorReps[0].Status != http.StatusInternalServerError {
		t.Errorf("errorReps = %v, want one 500 representation", w.errorReps)
	}
}

func TestExecuteHandlerError(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindSingle,
		Handler: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
			return nil, endpoint.NotFound("gone")
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateFailed {
		t.Errorf("state = %s, want %s", state, StateFailed)
	}
	if err == nil {
		t.Error("Execute should return the causing error")
	}
	if !reflect.DeepEqual(w.calls, []string{"WriteError"}) {
		t.Errorf("writes = %v, want exactly one WriteError", w.calls)
	}
}

func TestExecuteCancelledBeforeStagesWritesNothing(t *testing.T) {
	c := engineContext(t)
	c.Cancel()
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindSingle,
		Middleware: []endpoint.Middleware{
			func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (http.Header, error) {
				t.Error("middleware must not run for a cancelled request")
				return nil, nil
			},
		},
		Handler: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
			return &endpoint.Result{}, nil
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateCancelled {
		t.Errorf("state = %s, want %s", state, StateCancelled)
	}
	if err != nil {
		t.Errorf("Execute error = %v, want nil for cancellation", err)
	}
	if len(w.calls) != 0 {
		t.Errorf("writes = %v, want none", w.calls)
	}
}

func TestExecuteCancelledDuringHandlerWritesNothing(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindSingle,
		Handler: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
			// The client goes away while the handler is in flight.
			c.Cancel()
			return &endpoint.Result{Body: "late"}, nil
		},
	}

	state, _ := execute(t, build, c, w)
	if state != StateCancelled {
		t.Errorf("state = %s, want %s", state, StateCancelled)
	}
	if len(w.calls) != 0 {
		t.Errorf("writes = %v, want none", w.calls)
	}
}

func TestExecuteCancelledFailureSuppressesErrorWrite(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindSingle,
		Handler: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
			c.Cancel()
			return nil, errors.New("failed after disconnect")
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateFailed {
		t.Errorf("state = %s, want %s", state, StateFailed)
	}
	if err == nil {
		t.Error("Execute should still return the causing error")
	}
	if len(w.calls) != 0 {
		t.Errorf("writes = %v, want none after cancellation", w.calls)
	}
}

func TestExecuteStreamSuccess(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindStream,
		Stream: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
			ch := make(chan endpoint.StreamItem, 3)
			ch <- endpoint.StreamItem{Data: "one"}
			ch <- endpoint.StreamItem{Data: "two"}
			ch <- endpoint.StreamItem{Data: "three"}
			close(ch)
			return ch, nil
		},
	}

	state, err := execute(t, build, c, w)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if state != StateStreamClosed {
		t.Errorf("state = %s, want %s", state, StateStreamClosed)
	}
	want := []string{"StartStream", "WriteEvent", "WriteEvent", "WriteEvent"}
	if !reflect.DeepEqual(w.calls, want) {
		t.Errorf("writes = %v, want %v", w.calls, want)
	}
	if !reflect.DeepEqual(w.events, []any{"one", "two", "three"}) {
		t.Errorf("events = %v, want ordered items", w.events)
	}
}

func TestExecuteStreamPreambleBeforeHandler(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindStream,
		Stream: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
			// The preamble must already be committed when the producer
			// is created.
			if len(w.calls) == 0 || w.calls[0] != "StartStream" {
				t.Errorf("calls at handler time = %v, want StartStream first", w.calls)
			}
			ch := make(chan endpoint.StreamItem)
			close(ch)
			return ch, nil
		},
	}

	if _, err := execute(t, build, c, w); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
}

func TestExecuteStreamHandlerErrorBecomesTerminalFrame(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindStream,
		Stream: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
			return nil, errors.New("cannot start producer")
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateStreamFailed {
		t.Errorf("state = %s, want %s", state, StateStreamFailed)
	}
	if err == nil {
		t.Error("Execute should return the causing error")
	}
	want := []string{"StartStream", "WriteStreamError"}
	if !reflect.DeepEqual(w.calls, want) {
		t.Errorf("writes = %v, want %v", w.calls, want)
	}
}

func TestExecuteStreamProducerErrorBecomesTerminalFrame(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindStream,
		Stream: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
			ch := make(chan endpoint.StreamItem, 2)
			ch <- endpoint.StreamItem{Data: "partial"}
			ch <- endpoint.StreamItem{Err: errors.New("producer died")}
			close(ch)
			return ch, nil
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateStreamFailed {
		t.Errorf("state = %s, want %s", state, StateStreamFailed)
	}
	if err == nil {
		t.Error("Execute should return the causing error")
	}
	want := []string{"StartStream", "WriteEvent", "WriteStreamError"}
	if !reflect.DeepEqual(w.calls, want) {
		t.Errorf("writes = %v, want %v", w.calls, want)
	}
	if len(w.errorReps) != 1 {
		t.Fatalf("errorReps = %v, want exactly one terminal representation", w.errorReps)
	}
}

func TestExecuteStreamCancelStopsWrites(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{cancelFrom: c}

	build := &endpoint.Build{
		Kind: endpoint.KindStream,
		Stream: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
			ch := make(chan endpoint.StreamItem, 3)
			ch <- endpoint.StreamItem{Data: "one"}
			ch <- endpoint.StreamItem{Data: "two"}
			ch <- endpoint.StreamItem{Data: "three"}
			close(ch)
			return ch, nil
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateCancelled {
		t.Errorf("state = %s, want %s", state, StateCancelled)
	}
	if err != nil {
		t.Errorf("Execute error = %v, want nil for cancellation", err)
	}
	// Cancellation lands after the first event; nothing is written past it.
	want := []string{"StartStream", "WriteEvent"}
	if !reflect.DeepEqual(w.calls, want) {
		t.Errorf("writes = %v, want %v", w.calls, want)
	}
}

func TestExecuteStreamContextDoneCancels(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	ctx, cancel := context.WithCancel(context.Background())

	build := &endpoint.Build{
		Kind: endpoint.KindStream,
		Stream: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
			// A producer that never emits; the transport context going
			// away must still end the request.
			return make(chan endpoint.StreamItem), nil
		},
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	eng := New(nil)
	req := &endpoint.Request{Method: "GET", Path: "/test"}
	state, err := eng.Execute(ctx, build, c, req, w)
	if state != StateCancelled {
		t.Errorf("state = %s, want %s", state, StateCancelled)
	}
	if err != nil {
		t.Errorf("Execute error = %v, want nil", err)
	}
	if !c.Cancelled() {
		t.Error("context flag not set after transport disconnect")
	}
}

func TestExecuteStreamHandlerPanicBecomesTerminalFrame(t *testing.T) {
	c := engineContext(t)
	w := &fakeWriter{}

	build := &endpoint.Build{
		Kind: endpoint.KindStream,
		Stream: func(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
			panic("producer setup exploded")
		},
	}

	state, err := execute(t, build, c, w)
	if state != StateStreamFailed {
		t.Errorf("state = %s, want %s", state, StateStreamFailed)
	}
	if err == nil {
		t.Error("Execute should return the panic as an error")
	}
	want := []string{"StartStream", "WriteStreamError"}
	if !reflect.DeepEqual(w.calls, want) {
		t.Errorf("writes = %v, want %v", w.calls, want)
	}
}

func TestOutcome(t *testing.T) {
	ok := Success(&endpoint.Result{Body: "x"})
	if ok.Failed() {
		t.Error("Success outcome reports Failed")
	}
	if ok.Result().Body != "x" {
		t.Errorf("Result().Body = %v, want %q", ok.Result().Body, "x")
	}

	// A nil result is normalized to an empty one.
	if Success(nil).Result() == nil {
		t.Error("Success(nil).Result() = nil, want empty result")
	}

	bad := Failure(errors.New("boom"))
	if !bad.Failed() {
		t.Error("Failure outcome does not report Failed")
	}
	if bad.Err() == nil {
		t.Error("Failure outcome has nil Err")
	}

	// A nil error still yields a failure.
	if !Failure(nil).Failed() || Failure(nil).Err() == nil {
		t.Error("Failure(nil) should carry a generic error")
	}
}
