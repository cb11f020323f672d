// Package session keeps per-source assistant sessions in process memory.
//
// The assistant itself is stateless; the daemon threads one
// assistant.Session per Source through this store. A remembered name lives
// as long as the process unless an idle TTL is configured, in which case
// entries idle for longer are swept. Nothing is persisted.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nadzzz/voxmate/internal/assistant"
)

// Store is a concurrency-safe map from source to session.
type Store struct {
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// mu serializes read-modify-write cycles for one source.
	mu       sync.Mutex
	session  assistant.Session
	lastSeen time.Time // guarded by Store.mu
}

// NewStore creates an empty store that forgets sources idle for longer
// than idleTTL. A zero idleTTL keeps every session for the life of the
// store.
func NewStore(idleTTL time.Duration) *Store {
	return &Store{
		idleTTL: idleTTL,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Update runs fn on the current session for source and stores what it
// returns. Concurrent updates for the same source run one at a time, so a
// name learned by one utterance is never lost to a racing one.
func (s *Store) Update(source string, fn func(assistant.Session) assistant.Session) assistant.Session {
	e := s.touch(source)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = fn(e.session)
	return e.session
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts sessions idle since before now minus the TTL and returns how
// many were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for source, e := range s.entries {
		if now.Sub(e.lastSeen) > s.idleTTL {
			delete(s.entries, source)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick of interval until ctx is cancelled. It returns
// at once when the store has no idle TTL.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				slog.Debug("swept idle sessions", "removed", n, "remaining", s.Len())
			}
		}
	}
}

func (s *Store) touch(source string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[source]
	if !ok {
		e = &entry{}
		s.entries[source] = e
	}
	e.lastSeen = s.now()
	return e
}
