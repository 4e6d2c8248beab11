package cache

import (
	"context"
	"errors"
	"fitformula/api/internal/clock"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]time.Time // key -> expiry
}

func newMemoryStore(c clock.Clock) *memoryStore {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &memoryStore{clock: c, entries: make(map[string]time.Time)}
}

// setNX stores key until now+ttl unless a live entry exists.
func (s *memoryStore) setNX(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if exp, ok := s.entries[key]; ok && now.Before(exp) {
		return false
	}
	s.entries[key] = now.Add(ttl)
	s.sweep(now)
	return true
}

func (s *memoryStore) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *memoryStore) exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[key]
	if !ok {
		return false
	}
	if !s.clock.Now().Before(exp) {
		delete(s.entries, key)
		return false
	}
	return true
}

// sweep drops expired entries. Caller holds mu.
func (s *memoryStore) sweep(now time.Time) {
	for k, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, k)
		}
	}
}

type memoryDenylist struct {
	store *memoryStore
}

// NewMemoryDenylist returns a process-local TokenDenylist.
func NewMemoryDenylist(c clock.Clock) TokenDenylist {
	return &memoryDenylist{store: newMemoryStore(c)}
}

func (d *memoryDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("token id is empty")
	}
	if ttl <= 0 {
		return nil
	}
	d.store.setNX(tokenID, ttl)
	return nil
}

func (d *memoryDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return d.store.exists(tokenID), nil
}

type memoryTrialTracker struct {
	store *memoryStore
}

// NewMemoryTrialTracker returns a process-local TrialTracker.
func NewMemoryTrialTracker(c clock.Clock) TrialTracker {
	return &memoryTrialTracker{store: newMemoryStore(c)}
}

func (t *memoryTrialTracker) Consume(ctx context.Context, key string, window time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("trial key is empty")
	}
	return t.store.setNX(key, window), nil
}

func (t *memoryTrialTracker) Release(ctx context.Context, key string) error {
	t.store.remove(key)
	return nil
}
