package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	p := retryPolicy{maxAttempts: 3, backoff: time.Millisecond}

	calls := 0
	err := p.run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	p := retryPolicy{maxAttempts: 2, backoff: time.Millisecond}

	transient := errors.New("503 service unavailable")
	calls := 0
	err := p.run(context.Background(), func() error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected final transient error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestRetry_NotFoundIsFinal(t *testing.T) {
	p := retryPolicy{maxAttempts: 3, backoff: time.Millisecond}

	calls := 0
	err := p.run(context.Background(), func() error {
		calls++
		return ethereum.NotFound
	})
	if !errors.Is(err, ethereum.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no retry for NotFound, got %d attempts", calls)
	}
}

func TestRetry_ContextCancellationIsFinal(t *testing.T) {
	p := retryPolicy{maxAttempts: 5, backoff: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.run(ctx, func() error {
		calls++
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}

func TestRetry_ZeroAttemptsClampedToOne(t *testing.T) {
	p := retryPolicy{maxAttempts: 0, backoff: time.Millisecond}

	calls := 0
	_ = p.run(context.Background(), func() error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}
