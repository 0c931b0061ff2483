// Package ratelimit provides per-user request rate limiting.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a user may perform another request right now.
type Limiter interface {
	// Allow reports whether the request fits the user's window.
	Allow(ctx context.Context, userID int64) (bool, error)
}

// MemoryLimiter is a fixed-window in-process limiter, suitable for a
// single-instance deployment and for tests.
type MemoryLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[int64]*window
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter creates a limiter allowing limit requests per window.
func NewMemoryLimiter(limit int, windowSize time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  windowSize,
		windows: make(map[int64]*window),
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, userID int64) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[userID]
	if !ok || now.After(w.resetAt) {
		l.windows[userID] = &window{count: 1, resetAt: now.Add(l.window)}
		return true, nil
	}

	if w.count >= l.limit {
		return false, nil
	}

	w.count++
	return true, nil
}
