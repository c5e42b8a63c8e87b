package markup

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyID reports a data-lid attribute with an empty value.
	ErrEmptyID = errors.New("markup: empty data-lid value")

	// ErrDuplicateID reports two sibling regions sharing a data-lid.
	ErrDuplicateID = errors.New("markup: duplicate data-lid among siblings")

	// ErrUnclosed reports a region element with no matching end tag.
	ErrUnclosed = errors.New("markup: unclosed component element")
)

// ParseError describes a template the parser rejected.
type ParseError struct {
	// Name is the template name being parsed.
	Name string

	// Elem is the element the parser stopped at, when known.
	Elem string

	// LID is the region id involved, when known.
	LID string

	// Err is the underlying cause.
	Err error
}

func (e *ParseError) Error() string {
	switch {
	case e.LID != "":
		return fmt.Sprintf("markup %s: <%s data-lid=%q>: %v", e.Name, e.Elem, e.LID, e.Err)
	case e.Elem != "":
		return fmt.Sprintf("markup %s: <%s>: %v", e.Name, e.Elem, e.Err)
	default:
		return fmt.Sprintf("markup %s: %v", e.Name, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
