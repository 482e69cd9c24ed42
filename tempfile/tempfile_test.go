package tempfile_test

import (
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/jacoelho/sharedfile"
	"github.com/jacoelho/sharedfile/tempfile"
)

func TestShareReadWhileWriting(t *testing.T) {
	f, w, tf, err := tempfile.Share(t.TempDir())
	if err != nil {
		t.Fatalf("Share failed: %v", err)
	}
	t.Cleanup(func() { tf.Remove() })

	if f.Name() != tf.Name() {
		t.Fatalf("expected name %q, got %q", tf.Name(), f.Name())
	}

	readers := []*sharedfile.Reader{f.NewReader(), f.NewReader()}
	results := make([][]byte, len(readers))
	errs := make([]error, len(readers))
	var wg sync.WaitGroup
	for i, r := range readers {
		wg.Go(func() {
			results[i], errs[i] = io.ReadAll(r)
		})
	}

	want := make([]byte, 0, 200*1024)
	chunk := make([]byte, 1024)
	for i := range 200 {
		for j := range chunk {
			chunk[j] = byte(i + j)
		}
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		want = append(want, chunk...)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	wg.Wait()

	for i := range readers {
		if errs[i] != nil {
			t.Fatalf("reader %d failed: %v", i, errs[i])
		}
		if string(results[i]) != string(want) {
			t.Fatalf("reader %d: data mismatch", i)
		}
	}
}

func TestOpenExisting(t *testing.T) {
	tf, err := tempfile.Create(t.TempDir(), "existing-*")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := tf.Write([]byte("head|")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := tf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, size, err := tempfile.Open(tf.Name())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { reopened.Remove() })
	if size != 5 {
		t.Fatalf("expected size 5, got %d", size)
	}

	f, w := sharedfile.New(reopened, sharedfile.WithInitialLength(size))
	if _, err := w.Write([]byte("tail")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, err := io.ReadAll(f.NewReader())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "head|tail" {
		t.Fatalf("expected %q, got %q", "head|tail", got)
	}
}

func TestRemove(t *testing.T) {
	tf, err := tempfile.Create(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	name := tf.Name()

	if err := tf.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(name); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file to be gone, got %v", err)
	}
	if err := tf.Remove(); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
}
