package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives a limiter without wall-clock waits: sleeping advances
// the clock by the requested duration.
type fakeClock struct {
	current time.Time
	sleeps  int
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps++
	c.current = c.current.Add(d)
	return nil
}

func (c *fakeClock) install(l *Limiter) {
	l.SetClock(c.now, c.sleep)
}

func TestLimiter_StartsFull(t *testing.T) {
	l := NewLimiter(3, time.Second)
	newFakeClock().install(l)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("token %d should be available in a fresh bucket", i)
		}
	}
	if l.Allow() {
		t.Error("drained bucket must refuse a fourth token")
	}
}

func TestLimiter_RefillOverTime(t *testing.T) {
	l := NewLimiter(2, time.Second)
	clock := newFakeClock()
	clock.install(l)

	l.Allow()
	l.Allow()
	if l.TokensAvailable() != 0 {
		t.Fatalf("expected empty bucket, have %d", l.TokensAvailable())
	}

	clock.current = clock.current.Add(time.Second)
	if l.TokensAvailable() != 1 {
		t.Errorf("one refill interval should earn one token, have %d", l.TokensAvailable())
	}

	// Long idle periods must not overfill past the cap.
	clock.current = clock.current.Add(time.Hour)
	if l.TokensAvailable() != 2 {
		t.Errorf("bucket must cap at maxTokens, have %d", l.TokensAvailable())
	}
}

func TestLimiter_PartialIntervalEarnsNothing(t *testing.T) {
	l := NewLimiter(1, time.Second)
	clock := newFakeClock()
	clock.install(l)

	l.Allow()

	clock.current = clock.current.Add(999 * time.Millisecond)
	if l.Allow() {
		t.Error("a partial refill interval must not mint a token")
	}

	clock.current = clock.current.Add(time.Millisecond)
	if !l.Allow() {
		t.Error("a full interval must mint a token")
	}
}

func TestLimiter_WaitBlocksUntilRefill(t *testing.T) {
	l := NewLimiter(1, time.Second)
	clock := newFakeClock()
	clock.install(l)

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("fresh bucket wait: %v", err)
	}
	// Bucket empty: Wait must sleep through the refill, not spin forever.
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait across refill: %v", err)
	}
	if clock.sleeps == 0 {
		t.Error("second wait should have slept for the refill")
	}
}

func TestLimiter_WaitHonorsCancellation(t *testing.T) {
	l := NewLimiter(1, time.Hour)
	clock := newFakeClock()
	clock.install(l)

	l.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled from a cancelled wait, got %v", err)
	}
}
