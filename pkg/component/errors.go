package component

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle contract violations.
var (
	// ErrHierarchyUninitialized is the signal behind every missed
	// base-hook invocation: an override returned without the base
	// behavior's side effect, leaving the hierarchy bookkeeping
	// inconsistent.
	ErrHierarchyUninitialized = errors.New("component: hierarchy not properly initialized")

	// ErrRemoved is returned when a lifecycle operation reaches a
	// component that was detached from its tree.
	ErrRemoved = errors.New("component: component has been removed")
)

// HierarchyError reports a broken lifecycle contract: the named hook
// ran on the component at Path without invoking its base behavior, or
// the component reached output without the hook having run at all.
// Hierarchy errors are programmer errors; they abort rendering of the
// affected subtree and are never retried.
type HierarchyError struct {
	Path string // page-relative component path (component id for roots)
	Hook string // hook whose base behavior did not run
	Err  error  // underlying sentinel
}

// Error returns the error message with component context.
func (e *HierarchyError) Error() string {
	return fmt.Sprintf("component %s: %s: %v", e.Path, e.Hook, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *HierarchyError) Unwrap() error {
	return e.Err
}

func hierarchyErr(c Component, hook string) *HierarchyError {
	return &HierarchyError{Path: errorPath(c), Hook: hook, Err: ErrHierarchyUninitialized}
}

// errorPath names a component in errors: the page-relative path, or
// the bare id for tree roots, whose path is empty.
func errorPath(c Component) string {
	b := c.base()
	if p := b.Path(); p != "" {
		return p
	}
	return b.id
}
