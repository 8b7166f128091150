package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginThrottle limits login attempts per employee number to slow down
// password guessing.
type LoginThrottle struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewLoginThrottle allows attempts per window, all of them available as a burst.
func NewLoginThrottle(attempts int, window time.Duration) *LoginThrottle {
	if attempts <= 0 {
		attempts = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginThrottle{
		rate:        rate.Limit(float64(attempts) / window.Seconds()),
		burst:       attempts,
		lastCleanup: time.Now(),
	}
}

// Allow reports whether key has an attempt left. It does not consume one:
// only failed logins are charged.
func (t *LoginThrottle) Allow(key string) bool {
	l, ok := t.limiters.Load(key)
	if !ok {
		return true
	}
	return l.(*rate.Limiter).Tokens() >= 1
}

// Fail charges one failed attempt to key. It reports false once the budget
// is exhausted.
func (t *LoginThrottle) Fail(key string) bool {
	return t.limiter(key).Allow()
}

// Reset forgets key, typically after a successful login.
func (t *LoginThrottle) Reset(key string) {
	t.limiters.Delete(key)
}

func (t *LoginThrottle) limiter(key string) *rate.Limiter {
	if l, ok := t.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	actual, _ := t.limiters.LoadOrStore(key, rate.NewLimiter(t.rate, t.burst))
	t.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket refilled, at most every 5 minutes.
func (t *LoginThrottle) maybeCleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Since(t.lastCleanup) < 5*time.Minute {
		return
	}
	t.lastCleanup = time.Now()

	t.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(t.burst) {
			t.limiters.Delete(key)
		}
		return true
	})
}
