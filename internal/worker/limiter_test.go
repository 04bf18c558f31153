package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "10.0.0.1"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "10.0.0.2"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.Allow("10.0.0.1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "10.0.0.1"); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("expected allow to fail (exhausted tokens)")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Error("expected allow for other client")
	}
}

func TestLimiter_Prune(t *testing.T) {
	limiter := NewLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("old")
	now = now.Add(time.Hour)
	limiter.Allow("fresh")

	if n := limiter.Prune(30 * time.Minute); n != 1 {
		t.Errorf("expected 1 pruned client, got %d", n)
	}
	if limiter.Clients() != 1 {
		t.Errorf("expected 1 remaining client, got %d", limiter.Clients())
	}
}
