package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/logging"
)

// Item is an element of a synchronized list.
type Item interface {
	// Key identifies the item across fetches.
	Key() string
	// Fingerprint changes when a visible field of the item changes.
	Fingerprint() string
}

// Fetcher loads the full server list.
type Fetcher[T Item] func(ctx context.Context) ([]T, error)

// Config configures a Synchronizer.
type Config struct {
	Name        string
	Interval    time.Duration
	MinInterval time.Duration
}

// Synchronizer keeps a local copy of a server list fresh by polling, and
// layers optimistic local items on top of it.
type Synchronizer[T Item] struct {
	fetch  Fetcher[T]
	task   *Task
	logger zerolog.Logger

	mu      sync.Mutex
	updates chan struct{}
	closed  bool
	items   []T
	pending []T
	loaded  bool
	issued  uint64
	applied uint64
	stopped bool

	// generation advances on every Stop; a fetch from an older generation
	// is never applied.
	generation uint64
}

// New creates a stopped synchronizer.
func New[T Item](config Config, fetch Fetcher[T]) *Synchronizer[T] {
	s := &Synchronizer[T]{
		fetch:   fetch,
		logger:  logging.Component("poll").With().Str("sync", config.Name).Logger(),
		updates: make(chan struct{}, 1),
	}
	s.task = NewTask(TaskConfig{
		Name:        config.Name,
		Interval:    config.Interval,
		MinInterval: config.MinInterval,
	}, s.Refresh)
	return s
}

// Start begins polling. The first fetch starts immediately. A synchronizer
// restarted after Stop gets a fresh Updates channel.
func (s *Synchronizer[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = false
	if s.closed {
		s.updates = make(chan struct{}, 1)
		s.closed = false
	}
	s.mu.Unlock()
	return s.task.Start(ctx)
}

// Stop halts polling and closes the Updates channel. A fetch still in
// flight completes but its result is dropped, even if Start is called
// again before it returns.
func (s *Synchronizer[T]) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.generation++
	if !s.closed {
		close(s.updates)
		s.closed = true
	}
	s.mu.Unlock()
	return s.task.Stop()
}

// Trigger requests an immediate background fetch, subject to the in-flight
// guard and throttle.
func (s *Synchronizer[T]) Trigger() bool {
	return s.task.Trigger()
}

// Wait blocks until no background fetch is in flight.
func (s *Synchronizer[T]) Wait() {
	s.task.Wait()
}

// Task exposes the underlying schedule.
func (s *Synchronizer[T]) Task() *Task {
	return s.task
}

// Updates signals after every change to the snapshot. Signals coalesce:
// a receiver should read Snapshot rather than count signals. The channel
// is closed by Stop.
func (s *Synchronizer[T]) Updates() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// Refresh fetches now and merges the result. A result that arrives after a
// newer one has been applied is discarded.
func (s *Synchronizer[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	generation := s.generation
	s.mu.Unlock()

	items, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || generation != s.generation {
		s.logger.Debug().Uint64("seq", seq).Msg("discarding result after stop")
		return nil
	}
	if seq <= s.applied {
		s.logger.Debug().Uint64("seq", seq).Uint64("applied", s.applied).Msg("discarding stale result")
		return nil
	}
	s.applied = seq
	s.mergeLocked(items)
	return nil
}

func (s *Synchronizer[T]) mergeLocked(incoming []T) {
	first := !s.loaded
	s.loaded = true

	if !first && sameItems(s.items, incoming) {
		return
	}

	s.items = append([]T(nil), incoming...)

	seen := make(map[string]struct{}, len(incoming))
	for _, it := range incoming {
		seen[it.Key()] = struct{}{}
	}
	kept := s.pending[:0]
	for _, p := range s.pending {
		if _, ok := seen[p.Key()]; !ok {
			kept = append(kept, p)
		}
	}
	s.pending = kept

	s.notify()
}

// sameItems reports whether both lists hold the same multiset of
// fingerprints.
func sameItems[T Item](current, incoming []T) bool {
	if len(current) != len(incoming) {
		return false
	}
	counts := make(map[string]int, len(current))
	for _, it := range current {
		counts[it.Fingerprint()]++
	}
	for _, it := range incoming {
		fp := it.Fingerprint()
		if counts[fp] == 0 {
			return false
		}
		counts[fp]--
	}
	return true
}

func (s *Synchronizer[T]) notify() {
	if s.closed {
		return
	}
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Loaded reports whether at least one fetch has been applied.
func (s *Synchronizer[T]) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns the server items followed by pending local items.
func (s *Synchronizer[T]) Snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.items)+len(s.pending))
	out = append(out, s.items...)
	return append(out, s.pending...)
}

// Mutate applies a local change. fn is called once for the server items
// and once for the pending items, and must return the new list.
func (s *Synchronizer[T]) Mutate(fn func([]T) []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = fn(append([]T(nil), s.items...))
	s.pending = fn(append([]T(nil), s.pending...))
	s.notify()
}

// AddPending appends an optimistic item. It stays visible until a fetch
// returns an item with the same key, or until DropPending removes it.
func (s *Synchronizer[T]) AddPending(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, item)
	s.notify()
}

// Confirm replaces the pending item keyed localKey with the server copy.
func (s *Synchronizer[T]) Confirm(localKey string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p.Key() != localKey {
			continue
		}
		for _, existing := range s.items {
			if existing.Key() == item.Key() {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				s.notify()
				return
			}
		}
		s.pending[i] = item
		s.notify()
		return
	}
}

// DropPending removes a pending item, typically after its send failed.
func (s *Synchronizer[T]) DropPending(localKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p.Key() == localKey {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			s.notify()
			return
		}
	}
}
