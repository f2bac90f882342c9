package middlewares

import (
	"errors"
	"fmt"
	"time"
)

// PanicError is a handler panic caught by Recover.
type PanicError struct {
	Value any
	// Stack is nil when stack capture is disabled.
	Stack []byte
	Path  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("relay: panic serving %s: %v", e.Path, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TimeoutError reports a handler that was still running at its deadline.
type TimeoutError struct {
	// Err is what the handler returned after the deadline, if anything.
	Err      error
	Path     string
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("relay: %s exceeded %s deadline", e.Path, e.Duration)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// AsPanicError extracts a PanicError from the chain. Returns nil if there is none.
func AsPanicError(err error) *PanicError {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// AsTimeoutError extracts a TimeoutError from the chain. Returns nil if there is none.
func AsTimeoutError(err error) *TimeoutError {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te
	}
	return nil
}
