package resource

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"time"
)

// Stream is one locatable resource. Streams are cheap handles; content
// is read through Open.
type Stream interface {
	// Open returns the resource content. The caller closes it.
	Open() (io.ReadCloser, error)

	// ModTime is the resource's last modification time, used for cache
	// invalidation. Streams without one return the zero time.
	ModTime() time.Time

	// Location is a human-readable origin for logs and errors: a file
	// path, an fs name, an S3 key.
	Location() string
}

// fileStream serves a file on disk.
type fileStream struct {
	path string
	mod  time.Time
}

func (s *fileStream) Open() (io.ReadCloser, error) { return os.Open(s.path) }
func (s *fileStream) ModTime() time.Time           { return s.mod }
func (s *fileStream) Location() string             { return s.path }

// fsStream serves an entry of an fs.FS.
type fsStream struct {
	fsys fs.FS
	name string
	mod  time.Time
}

func (s *fsStream) Open() (io.ReadCloser, error) { return s.fsys.Open(s.name) }
func (s *fsStream) ModTime() time.Time           { return s.mod }
func (s *fsStream) Location() string             { return "fs:" + s.name }

// memStream serves bytes already in memory.
type memStream struct {
	name string
	data []byte
	mod  time.Time
}

func (s *memStream) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *memStream) ModTime() time.Time { return s.mod }
func (s *memStream) Location() string   { return s.name }

// ReadAll drains a stream into memory.
func ReadAll(s Stream) ([]byte, error) {
	rc, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
