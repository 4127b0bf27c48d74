package utils

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between provider requests.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a RateLimiter with the given minimum gap in
// milliseconds between consecutive Wait calls.
func NewRateLimiter(rateLimitMs int) *RateLimiter {
	return &RateLimiter{
		minInterval: time.Duration(rateLimitMs) * time.Millisecond,
		lastRequest: time.Now(),
	}
}

// Wait blocks until the minimum interval since the previous request has
// elapsed, then records the current time as the new reference point.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastRequest)
	if elapsed < r.minInterval {
		time.Sleep(r.minInterval - elapsed)
	}
	r.lastRequest = time.Now()
}

// LinkSet is a thread-safe set for tracking listing identifiers already seen
// while paging through a partition.
type LinkSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewLinkSet creates an empty LinkSet.
func NewLinkSet() *LinkSet {
	return &LinkSet{seen: make(map[string]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *LinkSet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains returns true if the key has already been seen.
func (s *LinkSet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *LinkSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
