package session

import (
	"errors"
	"fmt"
)

// ErrUninitializedBackend is returned when a lifecycle operation runs before
// Registry.Init or after Registry.Shutdown.
var ErrUninitializedBackend = errors.New("session: backend not initialized")

// ErrNotReady is returned by Manager.Start when the platform pre-check fails.
var ErrNotReady = errors.New("session: platform not ready")

// ErrQueueFull is returned when the lifecycle worker has too many pending
// requests.
var ErrQueueFull = errors.New("session: request queue full")

// ErrManagerClosed is returned for requests made or pending after the
// manager's worker stopped.
var ErrManagerClosed = errors.New("session: manager closed")

// BackendOperationError wraps a failed backend call. Op is "up", "down" or
// "get state".
type BackendOperationError struct {
	Op  string
	Err error
}

func (e *BackendOperationError) Error() string {
	return fmt.Sprintf("session: backend %s: %v", e.Op, e.Err)
}

func (e *BackendOperationError) Unwrap() error { return e.Err }
