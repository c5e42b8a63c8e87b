package resource

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Settings is the resource configuration record, constructed once at
// application startup and passed by reference to collaborators.
type Settings struct {
	// Finder locates markup templates and localization bundles.
	Finder Finder

	// Localizer resolves localized strings. Nil disables localization.
	Localizer *Localizer

	// DefaultCacheDuration is how long clients may cache static
	// resources; static responses derive Cache-Control from it.
	DefaultCacheDuration time.Duration

	// ErrorOnMissing turns unresolvable localization keys into errors.
	ErrorOnMissing bool

	// UseDefaultOnMissing lets a caller-provided default satisfy a
	// missing localization key before ErrorOnMissing applies.
	UseDefaultOnMissing bool

	// PollFrequency enables template modification watching when
	// positive; zero disables the watcher entirely.
	PollFrequency time.Duration

	// DisableCompression turns off gzip encoding of compressible
	// responses.
	DisableCompression bool

	// ParentFolderPlaceholder is the name segment that stands for "..".
	// Names spelling ".." directly are rejected, so the placeholder is
	// the only way a name can step out of its own folder, and never
	// above the resource roots.
	ParentFolderPlaceholder string
}

// DefaultSettings returns settings with the stock defaults: an empty
// path finder, one hour of client caching, compressed responses,
// missing localization keys are errors, caller-provided defaults are
// honored, and "::" as the parent-folder placeholder.
func DefaultSettings() *Settings {
	return &Settings{
		Finder:                  NewPathFinder(),
		DefaultCacheDuration:    time.Hour,
		ErrorOnMissing:          true,
		UseDefaultOnMissing:     true,
		ParentFolderPlaceholder: "::",
	}
}

// NormalizeName prepares a resource name for lookup: placeholder
// segments become "..", and the cleaned result must stay below the
// resource roots. A literal ".." segment fails with ErrTraversal no
// matter where it sits.
func (s *Settings) NormalizeName(name string) (string, error) {
	segs := strings.Split(name, "/")
	for i, seg := range segs {
		if seg == ".." {
			return "", fmt.Errorf("%q: %w", name, ErrTraversal)
		}
		if s.ParentFolderPlaceholder != "" && seg == s.ParentFolderPlaceholder {
			segs[i] = ".."
		}
	}
	clean := path.Clean(strings.Join(segs, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("%q: %w", name, ErrTraversal)
	}
	return clean, nil
}

// Find implements Finder. The name is normalized first and then handed
// to the configured finder, so the placeholder works with every
// backend. Template resolution goes through here rather than the raw
// finder.
func (s *Settings) Find(ctx context.Context, name string) (Stream, error) {
	normalized, err := s.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	return s.Finder.Find(ctx, normalized)
}

// AddResourceFolder appends a folder to the configured finder's search
// list. The finder must support path-style configuration; finders that
// do not (fs, S3, map backed) produce a ConfigError wrapping
// ErrFinderNotPath.
func (s *Settings) AddResourceFolder(folder string) error {
	appender, ok := s.Finder.(PathAppender)
	if !ok {
		return &ConfigError{
			Op:     "AddResourceFolder",
			Finder: fmt.Sprintf("%T", s.Finder),
			Err:    ErrFinderNotPath,
		}
	}
	appender.AddFolder(folder)
	return nil
}
