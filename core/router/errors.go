package router

import (
	"errors"
	"fmt"
)

var (
	// ErrHookAborted wraps an error returned by a lifecycle hook.
	ErrHookAborted = errors.New("hook aborted the pipeline")
	// ErrActionFailed wraps an error returned by a matched action.
	ErrActionFailed = errors.New("action failed")
	// ErrNilResponse is returned when an action yields neither an envelope nor an error.
	ErrNilResponse = errors.New("nil response")
	// ErrValidationFailed wraps a payload validation failure.
	ErrValidationFailed = errors.New("payload validation failed")
	// ErrAlreadyResolved is returned when an invocation is completed twice.
	ErrAlreadyResolved = errors.New("invocation already resolved")
	// ErrCreatedHook wraps an error returned by a created hook during Build.
	ErrCreatedHook = errors.New("created hook failed")

	// Registration errors
	ErrInvalidCondition = errors.New("invalid condition")
	ErrNilAction        = errors.New("nil action")
	ErrWildcardPosition = errors.New("wildcard position must be last")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
)

// PanicError allows error handlers to detect recovered panics.
// When a panic is recovered by the dispatcher it is wrapped in an error that
// implements this interface.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to see through panics raised with an error value.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
