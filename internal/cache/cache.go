// Package cache memoizes expensive analysis results by content hash.
// Identical payload means identical key means identical served result;
// key derivation is deterministic and carries no random suffix, so repeated
// requests for the same content never recompute.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Cache is a content-addressed store over a pluggable Backend.
type Cache struct {
	backend Backend
}

func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// Key derives the cache key for an arbitrary payload: a sha256 digest over
// its canonical JSON serialization, rendered as `<prefix>_<hex>.json`.
func Key(prefix string, payload any) (string, error) {
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serializing cache payload: %w", err)
	}
	return KeyBytes(prefix, canonical), nil
}

// KeyBytes derives the cache key for raw payload bytes.
func KeyBytes(prefix string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s_%s.json", prefix, hex.EncodeToString(sum[:]))
}

// Get returns the stored value for key, with found=false on a genuine miss.
// Backend failures surface as *BackendError so the caller can fall back to
// computing the value.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.backend.Get(ctx, key)
}

// Put stores value under key. Values are deterministic given the key, so a
// concurrent last-write-wins race is harmless.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	return c.backend.Put(ctx, key, value)
}

// GetJSON unmarshals a cached entry into out, returning found=false on miss.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A corrupt entry is served as a miss; the computed result overwrites it.
		return false, nil
	}
	return true, nil
}

// PutJSON serializes value and stores it under key.
func (c *Cache) PutJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serializing cache value: %w", err)
	}
	return c.Put(ctx, key, raw)
}
