package engine

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAttemptCompleted rejects any mutation aimed at a terminal attempt.
	// Hitting it is a programming error in the caller, never user-facing.
	ErrAttemptCompleted = errors.New("attempt is completed and immutable")

	// ErrSubmissionInFlight rejects a second submission while one is still
	// settling; navigation controls stay disabled during that window.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrStateNotLoaded rejects operations issued before the first
	// successful attempt-state fetch.
	ErrStateNotLoaded = errors.New("attempt state not loaded")

	// ErrSessionClosed marks results that arrived after the owning session
	// was torn down; such writes are discarded.
	ErrSessionClosed = errors.New("attempt session closed")
)

// ValidationError is a local input rejection. It blocks submission before any
// network call is made and is surfaced inline at the input.
type ValidationError struct {
	TaskID string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for task %s: %s", e.TaskID, e.Reason)
}

// RetryableError is a failed remote operation together with a retry action
// that re-invokes the exact same operation with the same captured arguments.
type RetryableError struct {
	Op    string
	Err   error
	Retry func(ctx context.Context) error
}

func (e *RetryableError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *RetryableError) Unwrap() error { return e.Err }
