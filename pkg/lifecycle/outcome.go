package lifecycle

import (
	"errors"

	"github.com/routebind/routebind/pkg/endpoint"
)

// Outcome is the tagged result of one lifecycle stage: either a success
// payload or the causing error, never both. Use the constructors to
// preserve that invariant.
type Outcome struct {
	res *endpoint.Result
	err error
}

// Success creates a successful outcome. A nil result is treated as an
// empty success payload.
func Success(res *endpoint.Result) Outcome {
	if res == nil {
		res = &endpoint.Result{}
	}
	return Outcome{res: res}
}

// Failure creates a failed outcome. A nil error is replaced with a
// generic one so a failed outcome always carries a cause.
func Failure(err error) Outcome {
	if err == nil {
		err = errors.New("lifecycle: stage failed without error")
	}
	return Outcome{err: err}
}

// Failed reports whether the outcome carries an error.
func (o Outcome) Failed() bool { return o.err != nil }

// Result returns the success payload. It is nil on failure.
func (o Outcome) Result() *endpoint.Result { return o.res }

// Err returns the causing error. It is nil on success.
func (o Outcome) Err() error { return o.err }
