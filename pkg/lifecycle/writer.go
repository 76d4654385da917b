package lifecycle

import (
	"context"
	"errors"

	"github.com/routebind/routebind/pkg/endpoint"
)

// ErrCancelled is returned by a ResponseWriter when the request's
// cancellation flag was observed before a write. The engine treats it
// as a silent transition to the Cancelled state, not as a failure.
var ErrCancelled = errors.New("lifecycle: request cancelled")

// ResponseWriter is the engine's view of the transport's output side.
// Implementations must check the request's cancellation flag before
// every side-effecting write and return ErrCancelled instead of
// writing, and must enforce that exactly one terminal write occurs.
//
// WriteResponse and WriteError are the terminal writes for
// single-response handling. StartStream commits the streaming preamble;
// after it, only WriteEvent and WriteStreamError are valid.
type ResponseWriter interface {
	// WriteResponse materializes a success: merges hdr, negotiates the
	// content representation, and writes the terminal response.
	WriteResponse(ctx context.Context, hdr *HeaderSet, body any) error

	// WriteError writes a normalized error as the terminal response.
	// Valid only before StartStream.
	WriteError(ctx context.Context, rep *endpoint.Error) error

	// StartStream establishes the streaming preamble (headers flushed
	// to the wire) before the first item is produced.
	StartStream(ctx context.Context, hdr *HeaderSet) error

	// WriteEvent writes one framed event and flushes it.
	WriteEvent(ctx context.Context, item any) error

	// WriteStreamError writes a normalized error as one final framed
	// event. Status and headers are already committed and are not
	// touched.
	WriteStreamError(ctx context.Context, rep *endpoint.Error) error
}
