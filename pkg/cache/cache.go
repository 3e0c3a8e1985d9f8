// Package cache provides a small byte-oriented cache used to persist
// decoded dataset indexes between seqgen runs.
//
// Decoding a glyph dataset means scanning every label to build the
// per-class sample index. The scan is cheap but pure overhead on repeat
// invocations, so the index is stored here keyed by a content hash of the
// dataset files. Two backends are provided:
//   - FileCache: entries stored under a directory (CLI default)
//   - NullCache: no-op, used with --no-cache and in tests
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any backend resources.
	Close() error
}

// IndexKey generates the cache key for a dataset's per-label sample index.
// contentHash is a hash of the dataset files (see Hash), so a changed or
// replaced dataset never hits a stale index.
func IndexKey(contentHash string) string {
	return fmt.Sprintf("dataset-index:%s", contentHash)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
