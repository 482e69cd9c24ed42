package sharedfile

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// snapshot is a consistent view of the shared state.
type snapshot struct {
	committed int64
	finished  bool
	err       error
}

// state tracks how many bytes the writer committed and whether it is done.
// It is shared by the writer and every reader of a File.
type state struct {
	mu sync.Mutex

	committed int64
	finished  bool
	err       error

	waiters map[uuid.UUID]chan struct{}
}

func newState(committed int64) *state {
	return &state{
		committed: committed,
		waiters:   make(map[uuid.UUID]chan struct{}),
	}
}

func (s *state) advance(n int64) {
	if n < 0 {
		panic("sharedfile: negative advance")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		panic("sharedfile: advance after finish")
	}
	if n == 0 {
		return
	}
	s.committed += n
	s.wakeLocked()
}

// finish freezes the committed length. The first non-nil err is kept.
func (s *state) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
	if err != nil && s.err == nil {
		s.err = err
	}
	s.wakeLocked()
}

func (s *state) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *state) snapshotLocked() snapshot {
	return snapshot{committed: s.committed, finished: s.finished, err: s.err}
}

// wait blocks until the committed length moves past observed, the writer
// finishes or stop is set. The check and the registration happen under the
// same lock as advance, finish and release, so a wake-up cannot be lost in
// between.
func (s *state) wait(ctx context.Context, id uuid.UUID, observed int64, stop *atomic.Bool) (snapshot, error) {
	s.mu.Lock()
	if s.committed > observed || s.finished || (stop != nil && stop.Load()) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	ch := make(chan struct{})
	s.waiters[id] = ch
	s.mu.Unlock()

	select {
	case <-ch:
		return s.snapshot(), nil
	case <-ctx.Done():
		s.mu.Lock()
		s.removeLocked(id, ch)
		s.mu.Unlock()
		return snapshot{}, ctx.Err()
	}
}

// release sets stop and wakes the waiter registered by id, if any.
func (s *state) release(id uuid.UUID, stop *atomic.Bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stop.Store(true)
	if ch, ok := s.waiters[id]; ok {
		close(ch)
		delete(s.waiters, id)
	}
}

func (s *state) removeLocked(id uuid.UUID, ch chan struct{}) {
	// a wake may have raced with cancellation and already cleared the entry
	if cur, ok := s.waiters[id]; ok && cur == ch {
		delete(s.waiters, id)
	}
}

func (s *state) wakeLocked() {
	for id, ch := range s.waiters {
		close(ch)
		delete(s.waiters, id)
	}
}
