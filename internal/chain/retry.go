package chain

import (
	"context"
	"errors"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
)

// retryPolicy retries transient RPC failures with linear backoff.
type retryPolicy struct {
	maxAttempts int
	backoff     time.Duration
}

// run executes fn, retrying on transient errors. Context cancellation
// and definitive answers (such as "not found") are returned immediately.
func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	attempts := p.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(attempt)):
		}
	}
	return err
}

// retryable classifies an RPC error. Anything that cannot change on a
// second attempt is final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ethereum.NotFound) {
		return false
	}
	return true
}
