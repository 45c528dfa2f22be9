package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how long expired counters linger in a MemoryStore.
const sweepInterval = time.Minute

// MemoryStore is a single-process Store used when no redis is configured
// in development and by tests.
type MemoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	entries   map[string]memoryEntry
	lastSweep time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
	}
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = memoryEntry{expiresAt: now.Add(ttl)}
	}
	e.count++
	s.entries[key] = e
	return e.count, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}
