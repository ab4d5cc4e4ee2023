// Package ratelimit implements a sliding-window request limiter keyed by an
// arbitrary string, typically a normalized email or an endpoint name.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts attempts per key inside a sliding window. Entries are pruned
// lazily on each check; memory grows with distinct keys and is reclaimed only
// through Reset.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[string][]time.Time

	now func() time.Time
}

// New creates a Limiter allowing max attempts per key within window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records an attempt for key and reports whether the caller may
// proceed. At capacity the attempt is rejected without being recorded, so a
// rejected caller does not extend its own lockout.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)
	if len(recent) >= l.max {
		l.buckets[key] = recent
		return false
	}
	l.buckets[key] = append(recent, now)
	return true
}

// Remaining returns how many attempts key has left in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(key, l.now())
	l.buckets[key] = recent
	if left := l.max - len(recent); left > 0 {
		return left
	}
	return 0
}

// Reset clears all recorded attempts for key. Called on successful login so
// legitimate follow-up attempts are not penalized.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	recent := l.buckets[key][:0]
	for _, t := range l.buckets[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}
