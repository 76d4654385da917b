package lifecycle

import "fmt"

// State is one phase of a request's execution lifecycle.
type State string

const (
	StateInitialized  State = "initialized"
	StateRunning      State = "running"
	StateHandling     State = "handling"
	StateStreaming    State = "streaming"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
	StateStreamClosed State = "stream_closed"
	StateStreamFailed State = "stream_failed"
	StateCancelled    State = "cancelled"
	StateDisposed     State = "disposed"
)

// transitions lists the allowed forward transitions. Cancelled is
// handled separately: it is reachable from every state except Disposed.
var transitions = map[State][]State{
	StateInitialized:  {StateRunning},
	StateRunning:      {StateHandling, StateFailed},
	StateHandling:     {StateCompleted, StateFailed, StateStreaming},
	StateStreaming:    {StateStreamClosed, StateStreamFailed},
	StateCompleted:    {StateDisposed},
	StateFailed:       {StateDisposed},
	StateStreamClosed: {StateDisposed},
	StateStreamFailed: {StateDisposed},
	StateCancelled:    {StateDisposed},
	StateDisposed:     {},
}

// ValidateTransition checks whether moving from one lifecycle state to
// another is allowed. The cross-cutting Cancelled state may be entered
// from any state prior to Disposed.
func ValidateTransition(from, to State) error {
	if to == StateCancelled {
		if from == StateDisposed || from == StateCancelled {
			return fmt.Errorf("lifecycle: invalid transition from %s to %s", from, to)
		}
		return nil
	}

	allowed, exists := transitions[from]
	if !exists {
		return fmt.Errorf("lifecycle: unknown state %s", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("lifecycle: invalid transition from %s to %s", from, to)
}

// Terminal reports whether a state admits no further stage work.
// Disposal still follows a terminal state.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateStreamClosed, StateStreamFailed, StateCancelled, StateDisposed:
		return true
	}
	return false
}
