// Package pebblestore provides a sharedfile backing store on top of Pebble.
//
// Each stream is stored as a sequence of chunks, one per write, keyed by the
// chunk's starting offset:
//
//	s | len(name) (4B BE) | name | offset (8B BE)  ->  chunk bytes
//
// Reads seek to the chunk that covers the requested offset and walk forward,
// so they never depend on a shared file position.
package pebblestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/pebble"
)

// Options configures the Pebble store.
type Options struct {
	// Dir is the path to the Pebble database directory.
	Dir string
	// Sync requests a WAL fsync on every chunk write. When false, durability
	// is only forced by Stream.Sync.
	Sync bool
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
	// Metrics observes chunk reads and writes. Optional.
	Metrics MetricsHook
}

// MetricsHook is a minimal hook surface for storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int) {}
func (NoopMetrics) ObserveRead(time.Duration, int)  {}

// Store wraps a Pebble database holding any number of streams.
type Store struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	metrics   MetricsHook
}

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("pebblestore: Options.Dir is required")
	}
	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	db, err := pebble.Open(opts.Dir, po)
	if err != nil {
		return nil, fmt.Errorf("pebblestore: open: %w", err)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}
	return &Store{db: db, writeOpts: writeOpts, metrics: metrics}, nil
}

// Close closes the Pebble database. Streams must not be used afterwards.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stream opens the named stream, creating it if needed. The returned stream
// appends after any data already stored; its Len can be passed to
// sharedfile.WithInitialLength.
func (s *Store) Stream(name string) (*Stream, error) {
	st := &Stream{store: s, name: name, prefix: streamPrefix(name)}
	st.upper = upperBound(st.prefix)
	size, err := st.storedLen()
	if err != nil {
		return nil, err
	}
	st.size = size
	return st, nil
}

// Remove deletes every chunk of the named stream.
func (s *Store) Remove(name string) error {
	prefix := streamPrefix(name)
	if err := s.db.DeleteRange(prefix, upperBound(prefix), pebble.Sync); err != nil {
		return fmt.Errorf("pebblestore: remove %q: %w", name, err)
	}
	return nil
}

// Stream is one append-only byte stream inside a Store. Write must only be
// called by a single goroutine; ReadAt is safe for concurrent use.
type Stream struct {
	store  *Store
	name   string
	prefix []byte
	upper  []byte
	size   int64
}

// Name returns the stream name.
func (st *Stream) Name() string {
	return st.name
}

// Len returns the number of bytes appended so far.
func (st *Stream) Len() int64 {
	return st.size
}

// Write stores p as a new chunk at the end of the stream.
func (st *Stream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	start := time.Now()
	if err := st.store.db.Set(st.chunkKey(st.size), p, st.store.writeOpts); err != nil {
		return 0, fmt.Errorf("pebblestore: write %q at %d: %w", st.name, st.size, err)
	}
	st.size += int64(len(p))
	st.store.metrics.ObserveWrite(time.Since(start), len(p))
	return len(p), nil
}

// ReadAt implements io.ReaderAt.
func (st *Stream) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("pebblestore: negative offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}
	start := time.Now()
	defer func() { st.store.metrics.ObserveRead(time.Since(start), n) }()

	iter, err := st.store.db.NewIter(&pebble.IterOptions{LowerBound: st.prefix, UpperBound: st.upper})
	if err != nil {
		return 0, fmt.Errorf("pebblestore: iterator: %w", err)
	}
	defer iter.Close()

	// the last chunk starting at or before off covers it, if anything does
	for valid := iter.SeekLT(st.chunkKey(off + 1)); valid && n < len(p); valid = iter.Next() {
		chunkStart := st.chunkOffset(iter.Key())
		value := iter.Value()
		pos := off + int64(n)
		if chunkStart > pos {
			return n, fmt.Errorf("pebblestore: missing chunk at %d in %q", pos, st.name)
		}
		if pos >= chunkStart+int64(len(value)) {
			continue
		}
		n += copy(p[n:], value[pos-chunkStart:])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Sync forces the write-ahead log to stable storage.
func (st *Stream) Sync() error {
	if err := st.store.db.LogData(nil, pebble.Sync); err != nil {
		return fmt.Errorf("pebblestore: sync: %w", err)
	}
	return nil
}

func (st *Stream) storedLen() (int64, error) {
	iter, err := st.store.db.NewIter(&pebble.IterOptions{LowerBound: st.prefix, UpperBound: st.upper})
	if err != nil {
		return 0, fmt.Errorf("pebblestore: iterator: %w", err)
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, nil
	}
	return st.chunkOffset(iter.Key()) + int64(len(iter.Value())), nil
}

func (st *Stream) chunkKey(off int64) []byte {
	key := make([]byte, len(st.prefix)+8)
	copy(key, st.prefix)
	binary.BigEndian.PutUint64(key[len(st.prefix):], uint64(off))
	return key
}

func (st *Stream) chunkOffset(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key[len(st.prefix):]))
}

func streamPrefix(name string) []byte {
	prefix := make([]byte, 0, 1+4+len(name))
	prefix = append(prefix, 's')
	prefix = binary.BigEndian.AppendUint32(prefix, uint32(len(name)))
	return append(prefix, name...)
}

// upperBound sorts after every chunk key of prefix.
func upperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix), len(prefix)+9)
	copy(upper, prefix)
	for range 8 {
		upper = append(upper, 0xff)
	}
	return append(upper, 0x00)
}
