package middleware

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(max, window)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow(42) {
			t.Fatalf("Allow() call %d = false, want true", i+1)
		}
	}
	if rl.Allow(42) {
		t.Error("Allow() over the limit = true, want false")
	}
	if !rl.Allow(7) {
		t.Error("Allow() for another user = false, want true")
	}
	if got := rl.RetryAfter(42); got != time.Minute {
		t.Errorf("RetryAfter() = %v, want %v", got, time.Minute)
	}

	clock.Advance(time.Minute + time.Second)
	if !rl.Allow(42) {
		t.Error("Allow() after window reset = false, want true")
	}
	if got := rl.RetryAfter(7); got != 0 {
		t.Errorf("RetryAfter() for an expired window = %v, want 0", got)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl, _ := newTestLimiter(0, time.Minute)
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		if !rl.Allow(1) {
			t.Fatal("Allow() with limiting disabled = false")
		}
	}
}

func TestRateLimiter_EvictExpired(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Minute)
	defer rl.Stop()

	rl.Allow(1)
	rl.Allow(2)
	clock.Advance(2 * time.Minute)
	rl.Allow(3)
	rl.evictExpired()

	if len(rl.limits) != 1 {
		t.Errorf("len(limits) = %d after eviction, want 1", len(rl.limits))
	}
}
