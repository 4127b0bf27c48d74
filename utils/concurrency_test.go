package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLinkSetNoDuplicates(t *testing.T) {
	s := NewLinkSet()

	added := s.Add("https://www.nhatot.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://www.nhatot.com/1")
	if added {
		t.Error("second Add of same key should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestLinkSetConcurrency(t *testing.T) {
	s := NewLinkSet()
	var added int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("https://www.nhatot.com/same") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestRateLimiterEnforcesGap(t *testing.T) {
	rateLimitMs := 100
	limiter := NewRateLimiter(rateLimitMs)

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		limiter.Wait()
		timestamps = append(timestamps, time.Now())
	}

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min {
			t.Errorf("gap between call %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}
