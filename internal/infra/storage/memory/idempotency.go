package memory

import (
	"context"
	"sync"
	"time"

	"rentpricing/internal/app/middleware"
)

// IdempotencyStore keeps command outcomes in memory. Records older than TTL are invisible and
// are evicted on the next Save; a zero TTL keeps them forever.
type IdempotencyStore struct {
	TTL time.Duration

	mu    sync.RWMutex
	now   func() time.Time
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{TTL: ttl, now: time.Now, items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.TTL > 0 && s.now().Sub(rec.OccurredAt) > s.TTL
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	if !ok || s.expired(rec) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, old := range s.items {
		if s.expired(old) {
			delete(s.items, key)
		}
	}
	s.items[rec.Key] = rec
	return nil
}

// Len reports how many records are held, expired ones included.
func (s *IdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
