package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and live-channel conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a
	// closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrSessionNotFound is returned when a session id does not exist.
	ErrSessionNotFound = errors.New("server: session not found")

	// ErrMaxSessionsReached is returned when the registry is full.
	ErrMaxSessionsReached = errors.New("server: max sessions reached")

	// ErrEventQueueFull is returned when an incoming event is dropped
	// because the session's event queue is full.
	ErrEventQueueFull = errors.New("server: event queue full")

	// ErrNoConnection is returned when a send is attempted while no
	// live connection is attached.
	ErrNoConnection = errors.New("server: no connection")
)

// SessionError wraps an error with session context.
type SessionError struct {
	SessionID string
	Op        string // operation that failed
	Err       error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{
		SessionID: sessionID,
		Op:        op,
		Err:       err,
	}
}

// ListenerPanicError wraps a panic recovered from a component's event
// listener. The session survives; the panic is reported to the client
// as an internal error.
type ListenerPanicError struct {
	SessionID string
	Path      string
	Event     string
	Panic     any
	Stack     []byte
}

// Error returns the error message.
func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("server: listener panic in session %s, path %q, event %q: %v",
		e.SessionID, e.Path, e.Event, e.Panic)
}
