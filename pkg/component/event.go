package component

import (
	"errors"
	"fmt"
)

// Event dispatch rejections. Stale client state makes every one of
// these routine: the browser may hold markup for components that have
// since been removed, hidden, or disabled on the server.
var (
	// ErrNoEventTarget means no component exists at the event path.
	ErrNoEventTarget = errors.New("component: no component at event path")

	// ErrNotListener means the target component does not implement
	// Listener.
	ErrNotListener = errors.New("component: event target does not listen")

	// ErrTargetHidden means the target or one of its ancestors is not
	// visible.
	ErrTargetHidden = errors.New("component: event target is not visible")

	// ErrTargetDisabled means the target or one of its ancestors is
	// disabled.
	ErrTargetDisabled = errors.New("component: event target is disabled")
)

// EventError reports a rejected or failed client event.
type EventError struct {
	Path  string // event target path as sent by the client
	Event string // event name
	Err   error
}

// Error returns the error message with event context.
func (e *EventError) Error() string {
	return fmt.Sprintf("event %q on %q: %v", e.Event, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *EventError) Unwrap() error {
	return e.Err
}

// Dispatch routes a client event to the component at path under root.
// The event is rejected when the target is missing, is not a Listener,
// or is not both visible and enabled through its entire ancestor
// chain. A non-nil error from the listener itself is wrapped the same
// way.
func Dispatch(root Component, path, event string, args map[string]any) error {
	target := bind(root).Get(path)
	if target == nil {
		return &EventError{Path: path, Event: event, Err: ErrNoEventTarget}
	}
	for c := target; c != nil; c = c.Parent() {
		if !c.Visible() {
			return &EventError{Path: path, Event: event, Err: ErrTargetHidden}
		}
		if !c.Enabled() {
			return &EventError{Path: path, Event: event, Err: ErrTargetDisabled}
		}
	}
	l, ok := target.(Listener)
	if !ok {
		return &EventError{Path: path, Event: event, Err: ErrNotListener}
	}
	if err := l.OnEvent(event, args); err != nil {
		return &EventError{Path: path, Event: event, Err: err}
	}
	return nil
}
