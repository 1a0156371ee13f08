package couv

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrInvalidDescriptor is returned when a value cannot be resolved to a
	// file descriptor.
	ErrInvalidDescriptor = errors.New("couv: invalid file descriptor")

	// ErrLoopInitializationFailed is returned by Scheduler.Hub when the
	// event loop could not be created. It is permanent for that scheduler.
	ErrLoopInitializationFailed = errors.New("couv: event loop initialization failed")

	// ErrHandleRegistrationFailed is returned when the event loop rejects a
	// timer, idle or watcher registration.
	ErrHandleRegistrationFailed = errors.New("couv: handle registration failed")

	// ErrCallbackPropagated matches any *CallbackError.
	ErrCallbackPropagated = errors.New("couv: handle callback panicked")

	// ErrNotInTasklet is returned by blocking helpers called outside a
	// tasklet.
	ErrNotInTasklet = errors.New("couv: not called from a tasklet")

	// ErrInReactor is returned by blocking helpers called from the reactor
	// driver, which must never park.
	ErrInReactor = errors.New("couv: blocking call from the reactor driver")

	// ErrDeadlock is returned by Scheduler.Run when the run queue drained
	// with tasklets still parked.
	ErrDeadlock = errors.New("couv: all tasklets are parked")
)

// CallbackError is delivered to a waiter when the callback of the handle it
// waits on panics.
type CallbackError struct {
	Value any
	Stack []byte
}

func newCallbackError(v any) *CallbackError {
	return &CallbackError{Value: v, Stack: debug.Stack()}
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCallbackPropagated, e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *CallbackError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func (e *CallbackError) Is(target error) bool {
	return target == ErrCallbackPropagated
}
