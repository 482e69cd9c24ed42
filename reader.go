package sharedfile

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// Reader reads a File from its own cursor. Reads block while the reader is
// caught up with a writer that has not finished. A Reader is not safe for
// concurrent use; create one reader per goroutine with Clone or Fork.
type Reader struct {
	id     uuid.UUID
	f      *File
	off    int64
	closed atomic.Bool
}

// Read implements io.Reader. It returns io.EOF only after the writer finished
// and every committed byte was delivered.
func (r *Reader) Read(b []byte) (int, error) {
	return r.ReadContext(context.Background(), b)
}

// ReadContext is like Read but gives up waiting for the writer when ctx is done.
// Cancelling leaves the reader's cursor untouched.
func (r *Reader) ReadContext(ctx context.Context, b []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrReaderClosed
	}
	if len(b) == 0 {
		return 0, nil
	}

	snap := r.f.st.snapshot()
	for {
		if available := snap.committed - r.off; available > 0 {
			return r.readAt(b, available)
		}
		if snap.finished {
			if snap.err != nil {
				return 0, snap.err
			}
			return 0, io.EOF
		}

		var err error
		snap, err = r.f.st.wait(ctx, r.id, snap.committed, &r.closed)
		if err != nil {
			r.f.log.Debug("read wait cancelled",
				slog.String("reader", r.id.String()),
				slog.Int64("offset", r.off),
				slog.Any("error", err),
			)
			return 0, err
		}
		if r.closed.Load() {
			return 0, ErrReaderClosed
		}
	}
}

// readAt reads at most available bytes at the cursor. The cursor only moves
// over bytes the backing actually returned.
func (r *Reader) readAt(b []byte, available int64) (int, error) {
	if int64(len(b)) > available {
		b = b[:available]
	}
	n, err := r.f.backing.ReadAt(b, r.off)
	switch {
	case n == len(b):
		// io.ReaderAt may report io.EOF alongside a full read at the end.
	case err == nil:
		if n == 0 {
			return 0, io.ErrNoProgress
		}
	case err == io.EOF:
		if n == 0 {
			return 0, ErrTruncated
		}
	default:
		return 0, err
	}
	r.off += int64(n)
	return n, nil
}

// ReadExact fills b completely. If the stream ends first it returns a
// *ShortReadError with the number of bytes obtained.
func (r *Reader) ReadExact(b []byte) (int, error) {
	return r.ReadExactContext(context.Background(), b)
}

// ReadExactContext is like ReadExact but stops waiting when ctx is done.
func (r *Reader) ReadExactContext(ctx context.Context, b []byte) (int, error) {
	var total int
	for total < len(b) {
		n, err := r.ReadContext(ctx, b[total:])
		total += n
		if err == io.EOF {
			return total, &ShortReadError{Read: total, Missing: len(b) - total}
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteTo implements io.WriterTo by reading until the writer finishes and
// writing everything to w.
func (r *Reader) WriteTo(w io.Writer) (n int64, err error) {
	return r.WriteToContext(context.Background(), w)
}

// WriteToContext is like WriteTo but stops waiting for the writer when ctx is
// done. Bytes already copied stay consumed.
func (r *Reader) WriteToContext(ctx context.Context, w io.Writer) (n int64, err error) {
	return copyChunks(func(b []byte) (int, error) {
		return r.ReadContext(ctx, b)
	}, w.Write)
}

// Clone returns an independent reader positioned at the start of the file.
func (r *Reader) Clone() *Reader {
	return r.f.newReader(0)
}

// Fork returns an independent reader positioned at this reader's cursor.
func (r *Reader) Fork() *Reader {
	return r.f.newReader(r.off)
}

// Offset returns the number of bytes consumed so far, including the starting offset.
func (r *Reader) Offset() int64 {
	return r.off
}

// ID returns the reader's identifier.
func (r *Reader) ID() uuid.UUID {
	return r.id
}

// Size returns the current size of the file.
func (r *Reader) Size() Size {
	return r.f.Size()
}

// Close releases the reader. A read blocked in another goroutine returns
// ErrReaderClosed. The backing store is not closed.
func (r *Reader) Close() error {
	if r.closed.Load() {
		return nil
	}
	r.f.st.release(r.id, &r.closed)
	return nil
}
