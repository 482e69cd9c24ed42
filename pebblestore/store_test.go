package pebblestore

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jacoelho/sharedfile"
)

type testMetrics struct {
	mu    sync.Mutex
	wrote int
	read  int
}

func (m *testMetrics) ObserveWrite(_ time.Duration, bytes int) {
	m.mu.Lock()
	m.wrote += bytes
	m.mu.Unlock()
}

func (m *testMetrics) ObserveRead(_ time.Duration, bytes int) {
	m.mu.Lock()
	m.read += bytes
	m.mu.Unlock()
}

func newTestStore(t *testing.T, dir string) (*Store, *testMetrics) {
	t.Helper()
	metrics := &testMetrics{}
	s, err := Open(Options{Dir: dir, Metrics: metrics})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, metrics
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatalf("expected error without Dir")
	}
}

func TestReadAtAcrossChunks(t *testing.T) {
	s, metrics := newTestStore(t, t.TempDir())
	st, err := s.Stream("upload")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	for _, chunk := range []string{"abc", "defg", "h", "ijkl"} {
		if _, err := st.Write([]byte(chunk)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if st.Len() != 12 {
		t.Fatalf("expected len 12, got %d", st.Len())
	}

	buf := make([]byte, 7)
	n, err := st.ReadAt(buf, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "cdefghi" {
		t.Fatalf("got %q want %q", buf[:n], "cdefghi")
	}

	n, err = st.ReadAt(buf, 10)
	if err != io.EOF || string(buf[:n]) != "kl" {
		t.Fatalf("expected short read %q with EOF, got %q, %v", "kl", buf[:n], err)
	}

	if n, err := st.ReadAt(buf, 12); n != 0 || err != io.EOF {
		t.Fatalf("expected EOF at end, got %d, %v", n, err)
	}

	if metrics.wrote != 12 || metrics.read == 0 {
		t.Fatalf("unexpected metrics wrote=%d read=%d", metrics.wrote, metrics.read)
	}
}

func TestStreamsAreIsolated(t *testing.T) {
	s, _ := newTestStore(t, t.TempDir())
	a, _ := s.Stream("a")
	ab, _ := s.Stream("a/b")

	a.Write([]byte("first"))
	ab.Write([]byte("second"))

	buf := make([]byte, 16)
	n, _ := a.ReadAt(buf, 0)
	if string(buf[:n]) != "first" {
		t.Fatalf("got %q want %q", buf[:n], "first")
	}
	n, _ = ab.ReadAt(buf, 0)
	if string(buf[:n]) != "second" {
		t.Fatalf("got %q want %q", buf[:n], "second")
	}
}

func TestStreamResumesAfterReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{Dir: dir, Sync: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	st, _ := s.Stream("log")
	st.Write([]byte("before "))
	if err := st.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, _ := newTestStore(t, dir)
	st2, err := s2.Stream("log")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if st2.Len() != 7 {
		t.Fatalf("expected resumed len 7, got %d", st2.Len())
	}

	f, w := sharedfile.New(st2, sharedfile.WithInitialLength(st2.Len()))
	if _, err := w.Write([]byte("after")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := io.ReadAll(f.NewReader())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if string(got) != "before after" {
		t.Fatalf("got %q want %q", got, "before after")
	}
	if f.Name() != "log" {
		t.Fatalf("expected name pass-through, got %q", f.Name())
	}
}

func TestSharedFileOverPebble(t *testing.T) {
	s, _ := newTestStore(t, t.TempDir())
	st, _ := s.Stream("shared")
	f, w := sharedfile.New(st)

	r := f.NewReader()
	var (
		wg      sync.WaitGroup
		got     []byte
		readErr error
	)
	wg.Go(func() {
		got, readErr = io.ReadAll(r)
	})

	want := make([]byte, 0, 4096)
	for i := range 64 {
		chunk := []byte{byte(i), byte(i + 1), byte(i + 2)}
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
		want = append(want, chunk...)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	wg.Wait()

	if readErr != nil {
		t.Fatalf("read: %v", readErr)
	}
	if string(got) != string(want) {
		t.Fatalf("data mismatch: got %d bytes want %d", len(got), len(want))
	}
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t, t.TempDir())
	st, _ := s.Stream("gone")
	st.Write([]byte("data"))

	if err := s.Remove("gone"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	st, _ = s.Stream("gone")
	if st.Len() != 0 {
		t.Fatalf("expected empty stream after remove, got %d", st.Len())
	}
}
