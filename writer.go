package sharedfile

import (
	"io"
	"log/slog"
)

// Writer is the single appending side of a File. A Writer is not safe for
// concurrent use.
type Writer struct {
	f *File

	// written counts bytes the backing reported as written; committed counts
	// the ones readers may see.
	written   int64
	committed int64
	done      bool

	// err is the first backing write error. It is terminal: whatever the
	// failed write left in the backing is never committed.
	err error
}

// Write appends b to the backing store. Once the append (and the backing's
// flush, when it buffers) succeeds, the bytes become visible to all readers.
// A failed write makes nothing visible, and every later Write, Flush, Sync,
// Finish or Close returns its error.
func (w *Writer) Write(b []byte) (int, error) {
	if err := w.usable(); err != nil {
		return 0, err
	}
	n, err := w.f.backing.Write(b)
	if n > 0 {
		w.written += int64(n)
	}
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = err
		w.f.log.Warn("write failed",
			slog.Int("requested", len(b)),
			slog.Int("written", n),
			slog.Any("error", err),
		)
		return n, err
	}
	if w.f.cfg.manualCommit {
		return n, nil
	}
	if err := w.commit(false); err != nil {
		return n, err
	}
	return n, nil
}

// WriteString is like Write but accepts a string.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// ReadFrom implements io.ReaderFrom by appending everything read from r
// until EOF or an error occurs.
func (w *Writer) ReadFrom(r io.Reader) (n int64, err error) {
	return copyChunks(r.Read, w.Write)
}

// Flush flushes the backing store and makes every written byte visible.
func (w *Writer) Flush() error {
	if err := w.usable(); err != nil {
		return err
	}
	return w.commit(false)
}

// Sync flushes and syncs the backing store, then makes every written byte visible.
func (w *Writer) Sync() error {
	if err := w.usable(); err != nil {
		return err
	}
	return w.commit(true)
}

// Finish commits the remaining bytes and marks the file complete. Readers that
// reach the end afterwards receive io.EOF. If flushing or syncing the backing
// fails, the writer stays open and Finish may be retried. After a failed
// Write, Finish returns that error; use Close to publish the failure.
func (w *Writer) Finish() error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := w.commit(w.f.cfg.syncOnFinish); err != nil {
		return err
	}
	w.done = true
	w.f.st.finish(nil)
	w.f.log.Debug("writer finished", slog.String("size", humanBytes(w.committed)))
	return nil
}

// Close finishes the writer. If a Write failed earlier, readers receive that
// error instead of io.EOF and Close returns it. Closing an already finished
// writer is a no-op.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	if w.err != nil {
		w.fail(w.err)
		return w.err
	}
	return w.Finish()
}

// CloseWithError marks the file as failed. Readers consume what was already
// committed and then receive err instead of io.EOF. Bytes written but not yet
// committed are never made visible. A nil err is the same as Close.
func (w *Writer) CloseWithError(err error) error {
	if err == nil {
		return w.Close()
	}
	if w.done {
		return nil
	}
	w.fail(err)
	return nil
}

// Err returns the error of the first failed Write, or nil.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) usable() error {
	if w.err != nil {
		return w.err
	}
	if w.done {
		return ErrFinished
	}
	return nil
}

func (w *Writer) fail(err error) {
	w.done = true
	w.f.st.finish(err)
	w.f.log.Warn("writer failed",
		slog.String("committed", humanBytes(w.committed)),
		slog.Int64("uncommitted", w.written-w.committed),
		slog.Any("error", err),
	)
}

// Size returns the current size of the file.
func (w *Writer) Size() Size {
	return w.f.Size()
}

// Name returns the backing's name, or an empty string when it has none.
func (w *Writer) Name() string {
	return w.f.Name()
}

// File returns the file this writer appends to.
func (w *Writer) File() *File {
	return w.f
}

func (w *Writer) commit(sync bool) error {
	if fl, ok := w.f.backing.(Flusher); ok {
		if err := fl.Flush(); err != nil {
			return err
		}
	}
	if sync {
		if s, ok := w.f.backing.(Syncer); ok {
			if err := s.Sync(); err != nil {
				return err
			}
		}
	}
	if delta := w.written - w.committed; delta > 0 {
		w.f.st.advance(delta)
		w.committed = w.written
	}
	return nil
}
