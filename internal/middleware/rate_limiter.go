package middleware

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window, in-memory limiter keyed by Telegram user ID.
// The bot keeps one for every update and a tighter one for AI generation.
type RateLimiter struct {
	limits map[int64]*userLimit
	mu     sync.Mutex

	maxRequests int
	window      time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

type userLimit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter allows maxRequests per user in every window. A
// non-positive maxRequests disables limiting.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limits:      make(map[int64]*userLimit),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		stop:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow records a request and reports whether it is within the limit.
func (rl *RateLimiter) Allow(userID int64) bool {
	if rl.maxRequests <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := rl.limits[userID]
	if !exists || now.After(limit.resetTime) {
		rl.limits[userID] = &userLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= rl.maxRequests {
		return false
	}

	limit.requests++
	return true
}

// RetryAfter is the time until the user's window resets.
func (rl *RateLimiter) RetryAfter(userID int64) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.limits[userID]
	if !exists {
		return 0
	}
	if d := limit.resetTime.Sub(rl.now()); d > 0 {
		return d
	}
	return 0
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, limit := range rl.limits {
		if now.After(limit.resetTime) {
			delete(rl.limits, userID)
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

