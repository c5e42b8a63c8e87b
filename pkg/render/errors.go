package render

import (
	"errors"
	"fmt"
)

var (
	// ErrNoComponent reports a markup region with no component bound
	// under the owning container.
	ErrNoComponent = errors.New("render: markup region has no matching component")

	// ErrNoRegion reports a component whose markup region could not be
	// located, typically on a partial update of a component the
	// current template does not reference.
	ErrNoRegion = errors.New("render: component has no markup region")

	// ErrNoSlot reports a border body slot with no enclosing content
	// to fill it.
	ErrNoSlot = errors.New("render: body slot outside a bordered region")
)

// PassError decorates a render failure with the component path or
// region id it occurred at.
type PassError struct {
	// Path is the page-relative component path, when known.
	Path string

	// LID is the markup region id, when known.
	LID string

	// Err is the underlying cause.
	Err error
}

func (e *PassError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("render %s: %v", e.Path, e.Err)
	case e.LID != "":
		return fmt.Sprintf("render region %q: %v", e.LID, e.Err)
	default:
		return fmt.Sprintf("render: %v", e.Err)
	}
}

func (e *PassError) Unwrap() error {
	return e.Err
}
