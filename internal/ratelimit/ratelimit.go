// Package ratelimit throttles application submissions per client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether one more event for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// MemoryLimiter is a fixed-window counter kept in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	if l.limit <= 0 || l.window <= 0 || key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.windowEnd) {
		if !ok && len(l.buckets) >= 1024 {
			l.sweep(now)
		}
		l.buckets[key] = &bucket{count: 1, windowEnd: now.Add(l.window)}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// sweep drops expired windows. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.windowEnd) {
			delete(l.buckets, k)
		}
	}
}
