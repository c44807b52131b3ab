package cli

import (
	"context"
	"strings"
	"testing"
)

func TestResolveRange_ExplicitBounds(t *testing.T) {
	// With both bounds set no chain access is needed.
	from, to, err := resolveRange(context.Background(), nil, 100, 200, 1000)
	if err != nil {
		t.Fatalf("resolveRange failed: %v", err)
	}
	if from != 100 || to != 200 {
		t.Errorf("range = %d-%d, want 100-200", from, to)
	}

	if _, _, err := resolveRange(context.Background(), nil, 200, 100, 1000); err == nil {
		t.Errorf("expected inverted range to be rejected")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CTFSCAN_RPC_URL", "https://rpc.example.org")
	t.Setenv("CTFSCAN_CHUNK_SIZE", "250")
	t.Setenv("CTFSCAN_WORKERS", "3")
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Chain.RPCURL != "https://rpc.example.org" {
		t.Errorf("RPCURL = %s, want https://rpc.example.org", cfg.Chain.RPCURL)
	}
	if cfg.Chain.ChunkSize != 250 {
		t.Errorf("ChunkSize = %d, want 250", cfg.Chain.ChunkSize)
	}
	if cfg.Concurrency.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Concurrency.Workers)
	}
}

func TestParseHash(t *testing.T) {
	want := "0x40c940e6c830e34f4d0d528b532a48eab95887047ebf058f397521f4bbfffe78"
	h, err := parseHash(want)
	if err != nil {
		t.Fatalf("parseHash failed: %v", err)
	}
	if h.Hex() != want {
		t.Errorf("hash = %s, want %s", h.Hex(), want)
	}

	bad := []string{
		"",
		"0x1234",
		"not-a-hash",
		"0x" + strings.Repeat("zz", 32),
		// Unprefixed hex and raw 32-byte strings are not hashes.
		want[2:],
		strings.Repeat("a", 32),
	}
	for _, s := range bad {
		if _, err := parseHash(s); err == nil {
			t.Errorf("parseHash(%q) succeeded", s)
		}
	}
}
