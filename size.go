package sharedfile

import (
	"github.com/docker/go-units"
)

// Size is a point-in-time view of how much of a File has been written.
type Size struct {
	n     int64
	exact bool
	err   error
}

func sizeOf(snap snapshot) Size {
	return Size{n: snap.committed, exact: snap.finished && snap.err == nil, err: snap.err}
}

// Minimum returns the number of committed bytes. It is always a valid lower bound.
func (s Size) Minimum() int64 {
	return s.n
}

// Exact returns the final size once the writer finished successfully.
// The boolean is false while the size is still unknown.
func (s Size) Exact() (int64, bool) {
	if !s.exact {
		return 0, false
	}
	return s.n, true
}

// Err returns the error the writer failed with, if any.
func (s Size) Err() error {
	return s.err
}

func (s Size) String() string {
	human := humanBytes(s.n)
	switch {
	case s.err != nil:
		return "failed after " + human
	case s.exact:
		return human
	default:
		return "at least " + human
	}
}

func humanBytes(n int64) string {
	return units.HumanSize(float64(n))
}
