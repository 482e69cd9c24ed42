// Package memstore provides an in-memory backing store for sharedfile.
package memstore

import (
	"errors"
	"io"
	"sync"
)

// ErrNegativeOffset is returned by ReadAt for offsets below zero.
var ErrNegativeOffset = errors.New("memstore: negative offset")

// Buffer is a growable byte slice that supports appending and reading at
// arbitrary offsets concurrently.
type Buffer struct {
	mu   sync.RWMutex
	data []byte
}

// New returns an empty buffer with room for sizeHint bytes.
func New(sizeHint int) *Buffer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Buffer{data: make([]byte, 0, sizeHint)}
}

// Write appends p to the buffer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	return len(p), nil
}

// ReadAt implements io.ReaderAt. Only bytes that were written are returned,
// regardless of the buffer's capacity.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Bytes returns a copy of the written bytes.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]byte(nil), b.data...)
}
