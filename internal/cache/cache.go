// Package cache provides the layered store for chain data that is
// expensive to refetch but effectively immutable: ERC-20 decimals and
// prepared markets looked up by condition ID.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte-oriented store with per-entry TTLs.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a namespaced cache key. The kind keeps decimals and market
// entries from colliding on the same identifier.
func Key(kind, id string) string {
	sum := sha256.Sum256([]byte(kind + ":" + id))
	return "ctfscan:v1:" + kind + ":" + hex.EncodeToString(sum[:])
}

// Nop is a disabled cache; every lookup misses.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)                 { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error   { return nil }
func (Nop) Delete(string) error                       { return nil }
func (Nop) Clear() error                              { return nil }
