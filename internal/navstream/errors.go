package navstream

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineUnavailable means the engine could not be opened or
	// configured. The stream never opens.
	ErrEngineUnavailable = errors.New("navstream: navigation engine unavailable")
	// ErrResourceExhausted means a side-channel packet could not be handed
	// off. Fatal to the read call that built it.
	ErrResourceExhausted = errors.New("navstream: resource exhausted")
	// ErrIOFailure means the engine reported a hard error. A fresh call may
	// be attempted.
	ErrIOFailure = errors.New("navstream: engine i/o failure")
	// ErrInvalidState means the stream is not open.
	ErrInvalidState = errors.New("navstream: stream is not open")
)

// EngineError records a failed engine operation. It matches both its class
// (one of the sentinels above) and the engine's own error with errors.Is.
type EngineError struct {
	Op    string
	Class error
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("navstream: %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() []error {
	return []error{e.Class, e.Err}
}

func engineErr(op string, class, err error) error {
	return &EngineError{Op: op, Class: class, Err: err}
}
