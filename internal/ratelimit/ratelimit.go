// Package ratelimit bounds how often one client address may present signed
// URLs within a fixed window.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLimitExceeded is returned when key has used up its window.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Limiter counts one hit for key and fails with ErrLimitExceeded once more
// than limit hits land in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

type window struct {
	count int
	end   time.Time
}

// MemoryLimiter is a fixed-window limiter local to the process.
type MemoryLimiter struct {
	mu     sync.Mutex
	limit  int
	period time.Duration
	now    func() time.Time
	keys   map[string]*window
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		period: period,
		now:    time.Now,
		keys:   make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.keys[key]
	if !ok || !now.Before(w.end) {
		l.keys[key] = &window{count: 1, end: now.Add(l.period)}
		l.sweep(now)
		return nil
	}
	if w.count >= l.limit {
		return ErrLimitExceeded
	}
	w.count++
	return nil
}

// sweep drops expired windows once the map grows, so one-off addresses do
// not accumulate forever.
func (l *MemoryLimiter) sweep(now time.Time) {
	if len(l.keys) < 1024 {
		return
	}
	for k, w := range l.keys {
		if !now.Before(w.end) {
			delete(l.keys, k)
		}
	}
}
