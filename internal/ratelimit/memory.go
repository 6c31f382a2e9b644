package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process fixed-window store. Buckets are created
// lazily on a key's first request and recycled least-recently-used first
// once MaxTrackedKeys is exceeded.
//
// Known limitation: a client whose bucket is evicted starts a fresh window
// on its next request, so a patient caller can shed its own count by waiting
// for eviction. Acceptable at this scope; a shared backend closes the gap.
type MemoryStore struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*list.Element
	order   *list.List // front = most recently used
}

type bucket struct {
	key         string
	count       int
	windowStart time.Time
}

// NewMemoryStore creates a store with the given quota configuration.
// Zero or negative MaxTrackedKeys disables eviction.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Consume spends one unit of key's budget. Safe for concurrent use.
func (s *MemoryStore) Consume(_ context.Context, key string) Decision {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.buckets[key]
	if !ok {
		elem = s.order.PushFront(&bucket{key: key, count: 1, windowStart: now})
		s.buckets[key] = elem
		s.evictLocked()
		return s.decision(elem.Value.(*bucket), true)
	}

	s.order.MoveToFront(elem)
	b := elem.Value.(*bucket)

	if now.Sub(b.windowStart) >= s.cfg.Window {
		b.count = 1
		b.windowStart = now
		return s.decision(b, true)
	}

	b.count++
	return s.decision(b, b.count <= s.cfg.Limit)
}

// Tracked returns the number of keys currently held. Used by tests and the
// health endpoint.
func (s *MemoryStore) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Peek reports the current count for key without consuming, or false if no
// bucket exists.
func (s *MemoryStore) Peek(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.buckets[key]
	if !ok {
		return 0, false
	}
	return elem.Value.(*bucket).count, true
}

func (s *MemoryStore) decision(b *bucket, allowed bool) Decision {
	remaining := s.cfg.Limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed,
		Remaining: remaining,
		Limit:     s.cfg.Limit,
		ResetAt:   b.windowStart.Add(s.cfg.Window),
	}
}

func (s *MemoryStore) evictLocked() {
	if s.cfg.MaxTrackedKeys <= 0 {
		return
	}
	for len(s.buckets) > s.cfg.MaxTrackedKeys {
		oldest := s.order.Back()
		if oldest == nil {
			return
		}
		s.order.Remove(oldest)
		delete(s.buckets, oldest.Value.(*bucket).key)
	}
}
