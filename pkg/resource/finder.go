package resource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"
)

// Finder locates a named resource stream. Names use forward slashes
// regardless of platform.
type Finder interface {
	// Find resolves name to a stream. A name no backend knows returns
	// an error wrapping ErrNotFound.
	Find(ctx context.Context, name string) (Stream, error)
}

// PathAppender is the optional finder capability of accepting more
// folders after construction. Settings.AddResourceFolder requires it.
type PathAppender interface {
	AddFolder(folder string)
}

// PathFinder searches an ordered list of disk folders; earlier folders
// win. Folders are meant to be configured at startup, before requests
// flow.
type PathFinder struct {
	folders []string
}

// NewPathFinder returns a PathFinder over the given folders.
func NewPathFinder(folders ...string) *PathFinder {
	return &PathFinder{folders: append([]string(nil), folders...)}
}

// AddFolder appends a folder to the search list.
func (f *PathFinder) AddFolder(folder string) {
	f.folders = append(f.folders, folder)
}

// Folders returns the current search list in order.
func (f *PathFinder) Folders() []string {
	return append([]string(nil), f.folders...)
}

// Find implements Finder.
func (f *PathFinder) Find(ctx context.Context, name string) (Stream, error) {
	for _, folder := range f.folders {
		p := filepath.Join(folder, filepath.FromSlash(name))
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		return &fileStream{path: p, mod: info.ModTime()}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
}

// FSFinder serves resources from an fs.FS, typically an embed.FS
// compiled into the binary.
type FSFinder struct {
	fsys fs.FS
}

// NewFSFinder returns a finder over fsys.
func NewFSFinder(fsys fs.FS) *FSFinder {
	return &FSFinder{fsys: fsys}
}

// Find implements Finder.
func (f *FSFinder) Find(ctx context.Context, name string) (Stream, error) {
	name = path.Clean(name)
	info, err := fs.Stat(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("resource: stat %q: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return &fsStream{fsys: f.fsys, name: name, mod: info.ModTime()}, nil
}

// MapFinder holds named contents in memory. It is safe for concurrent
// use and exists for tests and the uitest harness.
type MapFinder struct {
	mu      sync.RWMutex
	entries map[string]*memStream
}

// NewMapFinder returns an empty MapFinder.
func NewMapFinder() *MapFinder {
	return &MapFinder{entries: make(map[string]*memStream)}
}

// Put stores content under name, stamping the modification time so
// caches notice replacement.
func (f *MapFinder) Put(name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[name] = &memStream{name: "map:" + name, data: []byte(content), mod: time.Now()}
}

// Find implements Finder.
func (f *MapFinder) Find(ctx context.Context, name string) (Stream, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.entries[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return s, nil
}

// ChainFinder tries finders in order, returning the first hit.
type ChainFinder struct {
	finders []Finder
}

// NewChainFinder composes finders; earlier finders win.
func NewChainFinder(finders ...Finder) *ChainFinder {
	return &ChainFinder{finders: append([]Finder(nil), finders...)}
}

// Find implements Finder.
func (f *ChainFinder) Find(ctx context.Context, name string) (Stream, error) {
	for _, fd := range f.finders {
		s, err := fd.Find(ctx, name)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
}
