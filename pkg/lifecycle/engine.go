package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/routebind/routebind/pkg/debug"
	"github.com/routebind/routebind/pkg/endpoint"
)

// Engine drives endpoint builds through their execution lifecycle. It
// is stateless across requests and safe for concurrent use; all
// per-request state lives in the execution it creates.
type Engine struct {
	logger *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Execute runs one request against a build: middleware in declared
// order, then the terminal handler, then the terminal write through w.
// Failures are normalized and written inside Execute; the causing error
// is returned alongside the terminal state for logging and metrics.
// A cancelled request returns (StateCancelled, nil) and writes nothing.
//
// The build must have passed endpoint.ValidateBuild at registration;
// Execute does not re-check the endpoint kind.
func (e *Engine) Execute(ctx context.Context, build *endpoint.Build, c *endpoint.Context, req *endpoint.Request, w ResponseWriter) (State, error) {
	x := &execution{
		build: build,
		c:     c,
		req:   req,
		w:     w,
		hdr:   NewHeaderSet(),
		state: StateInitialized,
	}
	defer x.dispose()
	return x.run(ctx)
}

// execution holds the state machine for a single request.
type execution struct {
	build *endpoint.Build
	c     *endpoint.Context
	req   *endpoint.Request
	w     ResponseWriter
	hdr   *HeaderSet
	state State
}

func (x *execution) run(ctx context.Context) (State, error) {
	x.transition(StateRunning)

	// Middleware chain, declared order. Cancellation is checked at the
	// entry of each stage; a stage already in flight finishes its own
	// work and its result is re-checked before any write.
	for _, mw := range x.build.Middleware {
		if x.c.Cancelled() {
			return x.cancel()
		}
		out := x.invokeMiddleware(ctx, mw)
		if out.Failed() {
			return x.fail(ctx, out.Err())
		}
		x.hdr.Merge(out.Result().Header)
	}

	if x.c.Cancelled() {
		return x.cancel()
	}
	x.transition(StateHandling)

	if x.build.Kind == endpoint.KindStream {
		return x.runStream(ctx)
	}
	return x.runSingle(ctx)
}

func (x *execution) runSingle(ctx context.Context) (State, error) {
	out := x.invokeHandler(ctx)
	if out.Failed() {
		return x.fail(ctx, out.Err())
	}

	res := out.Result()
	x.hdr.Merge(res.Header)

	// The handler may have finished after the client went away;
	// re-check before the terminal write.
	if x.c.Cancelled() {
		return x.cancel()
	}

	if err := x.w.WriteResponse(ctx, x.hdr, res.Body); err != nil {
		if errors.Is(err, ErrCancelled) {
			return x.cancel()
		}
		x.transition(StateFailed)
		return x.state, err
	}

	x.transition(StateCompleted)
	return x.state, nil
}

func (x *execution) runStream(ctx context.Context) (State, error) {
	// The preamble is committed before the handler produces its first
	// item, so header-only clients observe the stream has begun even
	// if the first item is delayed indefinitely.
	x.transition(StateStreaming)
	if err := x.w.StartStream(ctx, x.hdr); err != nil {
		if errors.Is(err, ErrCancelled) {
			return x.cancel()
		}
		x.transition(StateStreamFailed)
		return x.state, err
	}

	ch, err := x.invokeStream(ctx)
	if err != nil {
		return x.failStream(ctx, err)
	}

	for {
		if x.c.Cancelled() {
			return x.cancel()
		}
		select {
		case <-ctx.Done():
			// Transport disconnect; the watcher sets the flag, but the
			// done channel fires first when the producer is slow.
			x.c.Cancel()
			return x.cancel()
		case item, ok := <-ch:
			if !ok {
				x.transition(StateStreamClosed)
				return x.state, nil
			}
			if item.Err != nil {
				return x.failStream(ctx, item.Err)
			}
			if err := x.w.WriteEvent(ctx, item.Data); err != nil {
				if errors.Is(err, ErrCancelled) {
					return x.cancel()
				}
				x.transition(StateStreamFailed)
				return x.state, err
			}
		}
	}
}

// fail handles a stage failure before streaming has begun: the
// normalized representation is written as the terminal response.
func (x *execution) fail(ctx context.Context, cause error) (State, error) {
	x.transition(StateFailed)
	rep := Normalize(x.c, x.build, cause)
	if !x.c.Cancelled() {
		if err := x.w.WriteError(ctx, rep); err != nil && !errors.Is(err, ErrCancelled) {
			x.c.Logger().Error("writing error response failed", slog.String("error", err.Error()))
		}
	}
	return x.state, cause
}

// failStream handles a failure after the stream preamble is on the
// wire: the normalized representation becomes one final framed event.
func (x *execution) failStream(ctx context.Context, cause error) (State, error) {
	x.transition(StateStreamFailed)
	rep := Normalize(x.c, x.build, cause)
	if !x.c.Cancelled() {
		if err := x.w.WriteStreamError(ctx, rep); err != nil && !errors.Is(err, ErrCancelled) {
			x.c.Logger().Error("writing stream error failed", slog.String("error", err.Error()))
		}
	}
	return x.state, cause
}

// cancel transitions silently to Cancelled: no error is reported and
// no write is attempted.
func (x *execution) cancel() (State, error) {
	x.transition(StateCancelled)
	return x.state, nil
}

func (x *execution) dispose() {
	x.transition(StateDisposed)
	x.c.Dispose()
}

func (x *execution) transition(to State) {
	if err := ValidateTransition(x.state, to); err != nil {
		// A bad transition is a defect in the engine itself, never
		// caused by request input. Log it and continue so the request
		// still reaches disposal.
		x.c.Logger().Error("invalid lifecycle transition", slog.String("error", err.Error()))
	}
	debug.Log("lifecycle", "state transition",
		"request_id", x.c.ID(),
		"from", string(x.state),
		"to", string(to))
	x.state = to
}

func (x *execution) invokeMiddleware(ctx context.Context, mw endpoint.Middleware) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failure(fmt.Errorf("middleware panic: %v", r))
		}
	}()
	h, err := mw(ctx, x.c, x.req)
	if err != nil {
		return Failure(err)
	}
	return Success(&endpoint.Result{Header: h})
}

func (x *execution) invokeHandler(ctx context.Context) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failure(fmt.Errorf("handler panic: %v", r))
		}
	}()
	res, err := x.build.Handler(ctx, x.c, x.req)
	if err != nil {
		return Failure(err)
	}
	return Success(res)
}

func (x *execution) invokeStream(ctx context.Context) (ch <-chan endpoint.StreamItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			ch = nil
			err = fmt.Errorf("stream handler panic: %v", r)
		}
	}()
	return x.build.Stream(ctx, x.c, x.req)
}
