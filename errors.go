package sharedfile

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrFinished is returned when writing to, or finishing, a Writer that has already finished.
	ErrFinished = errors.New("sharedfile: write after finish")
	// ErrReaderClosed is returned by reads on a closed Reader.
	ErrReaderClosed = errors.New("sharedfile: read from closed reader")
	// ErrNegativeOffset is returned when a reader is requested at a negative offset.
	ErrNegativeOffset = errors.New("sharedfile: negative offset")
	// ErrTruncated is returned when the backing store holds fewer bytes than were committed.
	ErrTruncated = errors.New("sharedfile: backing store shorter than committed length")
)

// ShortReadError reports that the stream ended before a buffer could be filled.
type ShortReadError struct {
	Read    int
	Missing int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("sharedfile: unexpected end of stream, short by %d bytes", e.Missing)
}

// Unwrap returns io.ErrUnexpectedEOF.
func (e *ShortReadError) Unwrap() error {
	return io.ErrUnexpectedEOF
}
