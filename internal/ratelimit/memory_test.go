package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(cfg Config) (*MemoryStore, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(cfg)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStoreAllowsWithinLimit(t *testing.T) {
	s, _ := newTestStore(Config{Limit: 5, Window: time.Minute})

	for i := 0; i < 5; i++ {
		d := s.Consume(context.Background(), "alice")
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, d.Limit)
		assert.Equal(t, 4-i, d.Remaining)
	}
}

func TestMemoryStoreDeniesSixthRequest(t *testing.T) {
	s, now := newTestStore(Config{Limit: 5, Window: time.Minute})

	for i := 0; i < 5; i++ {
		require.True(t, s.Consume(context.Background(), "alice").Allowed)
	}

	d := s.Consume(context.Background(), "alice")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, now.Add(time.Minute), d.ResetAt)
	assert.GreaterOrEqual(t, d.RetryAfter(*now), 1)
}

func TestMemoryStoreResetsAfterWindow(t *testing.T) {
	s, now := newTestStore(Config{Limit: 5, Window: time.Minute})

	for i := 0; i < 6; i++ {
		s.Consume(context.Background(), "alice")
	}
	require.False(t, s.Consume(context.Background(), "alice").Allowed)

	*now = now.Add(time.Minute + time.Second)

	d := s.Consume(context.Background(), "alice")
	assert.True(t, d.Allowed)
	count, ok := s.Peek("alice")
	require.True(t, ok)
	assert.Equal(t, 1, count, "count should reset to 1 in the new window")
}

func TestMemoryStoreKeysDoNotInterfere(t *testing.T) {
	s, _ := newTestStore(Config{Limit: 1, Window: time.Minute})

	require.True(t, s.Consume(context.Background(), "alice").Allowed)
	require.False(t, s.Consume(context.Background(), "alice").Allowed)
	assert.True(t, s.Consume(context.Background(), "bob").Allowed)
}

func TestMemoryStoreConcurrentConsume(t *testing.T) {
	const (
		limit   = 5
		callers = 100
	)
	s := NewMemoryStore(Config{Limit: limit, Window: time.Minute})

	var allowed atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.Consume(context.Background(), "shared").Allowed {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(limit), allowed.Load(),
		"exactly limit approvals within one window, regardless of contention")
}

func TestMemoryStoreLRUEviction(t *testing.T) {
	s, _ := newTestStore(Config{Limit: 5, Window: time.Minute, MaxTrackedKeys: 3})

	s.Consume(context.Background(), "a")
	s.Consume(context.Background(), "b")
	s.Consume(context.Background(), "c")
	s.Consume(context.Background(), "a") // refresh a, b is now oldest
	s.Consume(context.Background(), "d") // evicts b

	assert.Equal(t, 3, s.Tracked())
	_, ok := s.Peek("b")
	assert.False(t, ok, "least-recently-used key should be evicted")
	_, ok = s.Peek("a")
	assert.True(t, ok)

	// an evicted key starts a fresh window (documented limitation)
	d := s.Consume(context.Background(), "b")
	assert.True(t, d.Allowed)
	count, _ := s.Peek("b")
	assert.Equal(t, 1, count)
}

func TestMemoryStoreManyKeysUnderEviction(t *testing.T) {
	s, _ := newTestStore(Config{Limit: 2, Window: time.Minute, MaxTrackedKeys: 10})

	for i := 0; i < 100; i++ {
		d := s.Consume(context.Background(), fmt.Sprintf("key-%d", i))
		assert.True(t, d.Allowed)
	}
	assert.Equal(t, 10, s.Tracked())
}

func TestDecisionRetryAfterFloor(t *testing.T) {
	now := time.Now()
	d := Decision{ResetAt: now.Add(200 * time.Millisecond)}
	assert.Equal(t, 1, d.RetryAfter(now), "retry-after never reports below one second")
}
