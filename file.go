package sharedfile

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

var (
	_ io.Reader       = (*Reader)(nil)
	_ io.WriterTo     = (*Reader)(nil)
	_ io.Closer       = (*Reader)(nil)
	_ io.Writer       = (*Writer)(nil)
	_ io.StringWriter = (*Writer)(nil)
	_ io.ReaderFrom   = (*Writer)(nil)
	_ io.Closer       = (*Writer)(nil)
)

// Backing is the storage a File is built on. Writes append sequentially and
// ReadAt must be safe to call concurrently with Write and with other ReadAt calls.
type Backing interface {
	io.Writer
	io.ReaderAt
}

// Flusher is implemented by backings that buffer writes.
type Flusher interface {
	Flush() error
}

// Syncer is implemented by backings that can persist their contents, such as *os.File.
type Syncer interface {
	Sync() error
}

// Namer is implemented by backings that have a path or identifier.
type Namer interface {
	Name() string
}

// File is a backing store shared by one Writer and any number of Readers.
type File struct {
	st      *state
	backing Backing
	cfg     config
	log     *slog.Logger
}

// New wraps b and returns the File together with its only Writer.
// All further writes to b must go through the returned Writer.
func New(b Backing, opts ...Option) (*File, *Writer) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	f := &File{
		st:      newState(cfg.initialLength),
		backing: b,
		cfg:     cfg,
	}
	f.log = cfg.logger.With(slog.String("file", f.Name()))
	w := &Writer{
		f:         f,
		written:   cfg.initialLength,
		committed: cfg.initialLength,
	}
	return f, w
}

// NewReader returns a reader positioned at the start of the file.
func (f *File) NewReader() *Reader {
	return f.newReader(0)
}

// NewReaderAt returns a reader positioned at off. The offset may lie beyond the
// bytes written so far, in which case reads block until the writer gets there.
func (f *File) NewReaderAt(off int64) (*Reader, error) {
	if off < 0 {
		return nil, ErrNegativeOffset
	}
	return f.newReader(off), nil
}

func (f *File) newReader(off int64) *Reader {
	r := &Reader{id: uuid.New(), f: f, off: off}
	f.log.Debug("reader created", slog.String("reader", r.id.String()), slog.Int64("offset", off))
	return r
}

// Size returns the current size of the file.
func (f *File) Size() Size {
	return sizeOf(f.st.snapshot())
}

// Name returns the backing's name, or an empty string when it has none.
func (f *File) Name() string {
	if n, ok := f.backing.(Namer); ok {
		return n.Name()
	}
	return ""
}

// Wait blocks until the writer finishes or ctx is done, and returns the final size.
// If the writer failed, the error it failed with is returned alongside the size.
func (f *File) Wait(ctx context.Context) (Size, error) {
	id := uuid.New()
	snap := f.st.snapshot()
	for !snap.finished {
		var err error
		if snap, err = f.st.wait(ctx, id, snap.committed, nil); err != nil {
			return f.Size(), err
		}
	}
	return sizeOf(snap), snap.err
}
