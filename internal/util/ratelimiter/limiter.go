package ratelimiter

import (
	"sync"
	"time"
)

// Limiter provides simple time-based rate limiting: one allowed action per
// interval. It is safe for concurrent use. The controller uses it to keep
// per-chunk progress from flooding the log.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
}

// New creates a new rate limiter with the specified interval.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
	}
}

// Allow reports whether an action is allowed now, recording the allowance
// when it is.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastAllowed) >= l.interval {
		l.lastAllowed = now
		return true
	}
	return false
}

// Reset clears the limiter so the next Allow succeeds immediately. Called
// at the start of each attempt so the first progress line always logs.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastAllowed = time.Time{}
}
