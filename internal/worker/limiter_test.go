package worker

import (
	"context"
	"testing"
)

func TestLimiter_DefaultBurstClamp(t *testing.T) {
	l := NewLimiter(10, -1)
	if l.defaultBurst != 1 {
		t.Errorf("expected burst clamp to 1, got %d", l.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "https://polygon-rpc.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := l.Wait(ctx, "https://rpc.ankr.com/polygon"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_SeparatesEndpoints(t *testing.T) {
	l := NewLimiter(1, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "https://polygon-rpc.com"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	// Same host: token exhausted.
	if l.Allow("https://polygon-rpc.com/v2") {
		t.Errorf("expected same-host request to be throttled")
	}
	// Different host: independent bucket.
	if !l.Allow("https://rpc.ankr.com/polygon") {
		t.Errorf("expected other host to be admitted")
	}
}

func TestLimiter_SetEndpointRate(t *testing.T) {
	l := NewLimiter(100, 10)
	l.SetEndpointRate("polygon-rpc.com", 1, 1)

	if !l.Allow("https://polygon-rpc.com") {
		t.Fatalf("expected first request to pass")
	}
	if l.Allow("https://polygon-rpc.com") {
		t.Errorf("expected override rate to throttle second request")
	}
}

func TestExtractHost_BareEndpoint(t *testing.T) {
	host, err := extractHost("localhost:8545")
	if err != nil {
		t.Fatalf("extractHost failed: %v", err)
	}
	if host != "localhost:8545" {
		t.Errorf("host = %q, want localhost:8545", host)
	}
}
