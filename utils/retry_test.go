package utils

import (
	"errors"
	"testing"
	"time"
)

func TestRetryEventualSuccess(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger()}

	calls := 0
	err := r.Do("flaky op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewLogger()}

	wantErr := errors.New("permanent")
	calls := 0
	err := r.Do("doomed op", func() error {
		calls++
		return wantErr
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestNextDelayCap(t *testing.T) {
	tests := []struct {
		current time.Duration
		max     time.Duration
		want    time.Duration
	}{
		{time.Second, 0, 2 * time.Second},
		{time.Second, 8 * time.Second, 2 * time.Second},
		{6 * time.Second, 8 * time.Second, 8 * time.Second},
		{8 * time.Second, 8 * time.Second, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := nextDelay(tt.current, tt.max); got != tt.want {
			t.Errorf("nextDelay(%v, %v) = %v; want %v", tt.current, tt.max, got, tt.want)
		}
	}
}
