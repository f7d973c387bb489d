package middleware

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type bucket struct {
	count     int
	resetTime time.Time
}

// RateLimiter allows limit actions per key within a fixed window. Keys are kept in a
// bounded LRU and expire together with their window.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets *expirable.LRU[string, *bucket]
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration, size int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: expirable.NewLRU[string, *bucket](size, nil, window),
		now:     time.Now,
	}
}

// Allow records one action for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets.Get(key)
	if !ok || now.After(b.resetTime) {
		l.buckets.Add(key, &bucket{count: 1, resetTime: now.Add(l.window)})
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// RetryAfter returns how long key stays limited.
func (l *RateLimiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets.Get(key)
	if !ok {
		return 0
	}
	if d := b.resetTime.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}
