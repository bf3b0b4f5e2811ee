// Package storage provides the response cache used by the DBpedia client.
//
// It defines the Cache protocol that all cache implementations must
// satisfy, along with the errors and key helper shared across backends.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Get when a key is absent or expired.
	ErrNotFound = errors.New("cache entry not found")

	// ErrClosed is returned by operations on a closed or uninitialized cache.
	ErrClosed = errors.New("cache is closed")

	// ErrReadOnly is returned by writes on a cache opened read-only.
	ErrReadOnly = errors.New("cache is read-only")
)

// Stats describes cache usage since it was opened.
type Stats struct {
	// Entries is the number of live entries.
	Entries int `json:"entries"`

	// Hits counts Get calls that found a live entry.
	Hits int64 `json:"hits"`

	// Misses counts Get calls that returned ErrNotFound.
	Misses int64 `json:"misses"`
}

// Cache is a key/value store with per-entry expiry.
//
// All implementations must be safe for concurrent use.
type Cache interface {
	// Initialize opens or creates the cache at path.
	// If readOnly is true, writes return ErrReadOnly.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the cache.
	Close() error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Stats returns usage counters.
	Stats(ctx context.Context) (Stats, error)
}

// Key derives a fixed-length cache key from its parts.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
