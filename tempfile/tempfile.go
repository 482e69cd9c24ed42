// Package tempfile provides a temporary-file backing store for sharedfile.
package tempfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/jacoelho/sharedfile"
)

// File is a temporary file opened for reading and writing. Writes go through
// the file's own position; reads always use explicit offsets, so concurrent
// readers never disturb the writer.
type File struct {
	*os.File
}

// Create creates a new temporary file in dir. An empty dir means os.TempDir.
func Create(dir, pattern string) (*File, error) {
	if pattern == "" {
		pattern = "sharedfile-*"
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("tempfile: create: %w", err)
	}
	return &File{File: f}, nil
}

// Open opens an existing file for appending and returns it with its current
// length, which can be passed to sharedfile.WithInitialLength.
func Open(name string) (*File, int64, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("tempfile: open: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("tempfile: stat: %w", err)
	}
	return &File{File: f}, fi.Size(), nil
}

// Share creates a temporary file in dir and wraps it in a sharedfile.File.
// Callers remove the file with Remove once every reader is done.
func Share(dir string, opts ...sharedfile.Option) (*sharedfile.File, *sharedfile.Writer, *File, error) {
	tf, err := Create(dir, "")
	if err != nil {
		return nil, nil, nil, err
	}
	f, w := sharedfile.New(tf, opts...)
	return f, w, tf, nil
}

// Remove closes the file and deletes it from disk.
func (f *File) Remove() error {
	closeErr := f.File.Close()
	if errors.Is(closeErr, os.ErrClosed) {
		closeErr = nil
	}
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tempfile: remove: %w", err)
	}
	return closeErr
}
