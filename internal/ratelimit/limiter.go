package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket. The batch processor drains one token per chunk
// so chunk pacing stays decoupled from the per-request limiter inside the
// worker pool.
type Limiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewLimiter creates a bucket holding maxTokens that regains one token
// every refillRate.
func NewLimiter(maxTokens int, refillRate time.Duration) *Limiter {
	l := &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		now:        time.Now,
		sleep:      sleepCtx,
	}
	l.lastRefill = l.now()
	return l
}

// SetClock replaces the time source and sleeper so tests can drive the
// bucket without wall-clock waits.
func (l *Limiter) SetClock(now func() time.Time, sleep func(context.Context, time.Duration) error) {
	l.mu.Lock()
	l.now = now
	l.sleep = sleep
	l.lastRefill = now()
	l.mu.Unlock()
}

// Allow consumes a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens > 0 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}

		l.mu.Lock()
		interval := l.refillRate / time.Duration(l.maxTokens)
		sleep := l.sleep
		l.mu.Unlock()

		if interval <= 0 {
			interval = time.Millisecond
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// TokensAvailable reports the current token count after refill.
func (l *Limiter) TokensAvailable() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens
}

// refill adds tokens earned since the last refill. Caller holds the mutex.
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill)

	earned := int(elapsed / l.refillRate)
	if earned > 0 {
		l.tokens = min(l.maxTokens, l.tokens+earned)
		l.lastRefill = now
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
