package resource

import (
	"errors"
	"fmt"
)

// Sentinel errors for resource resolution and configuration.
var (
	// ErrNotFound is returned when no finder can resolve a resource
	// name.
	ErrNotFound = errors.New("resource: not found")

	// ErrFinderNotPath is returned when a folder is added to a finder
	// that does not support path-style configuration.
	ErrFinderNotPath = errors.New("resource: finder does not support folder paths")

	// ErrTraversal is returned for resource names that spell ".."
	// directly or climb above the resource roots through the
	// parent-folder placeholder.
	ErrTraversal = errors.New("resource: parent traversal in name")

	// ErrMissingString is returned for unresolvable localization keys
	// when the settings demand an error.
	ErrMissingString = errors.New("resource: missing localized string")
)

// ConfigError reports an invalid settings mutation, such as adding a
// resource folder to a finder without path-style configuration. It is
// raised synchronously at the call site and never retried.
type ConfigError struct {
	Op     string // operation that failed
	Finder string // concrete finder type
	Err    error  // underlying sentinel
}

// Error returns the error message with configuration context.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("resource: %s on %s: %v", e.Op, e.Finder, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
