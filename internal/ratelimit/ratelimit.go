// Package ratelimit enforces a fixed-window request quota per client key.
//
// The store is the only process-wide mutable state in the service. It is
// expressed as an interface so the in-memory implementation can be swapped
// for a shared backend (see RedisStore) without touching the request
// pipeline.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of consuming one rate-limit unit.
// consume never fails: a missing decision is a bug, not an error path.
type Decision struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds a denied caller must wait before the
// window resets, always at least 1.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Config holds the quota parameters for a store
type Config struct {
	Limit          int
	Window         time.Duration
	MaxTrackedKeys int
}

// Store tracks request counts per client key. Implementations must make the
// read-modify-write on a single key atomic: one key never receives more than
// Limit approvals inside one window, no matter how many callers race.
type Store interface {
	// Consume spends one unit of key's budget for the current window and
	// reports whether the request may proceed. The context bounds calls to
	// remote backends; the in-memory store ignores it.
	Consume(ctx context.Context, key string) Decision
}
