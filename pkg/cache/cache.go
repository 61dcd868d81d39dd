// Package cache provides result caching for the conversion pipeline.
//
// Conversions are deterministic, so a grid is fully determined by the image
// bytes and the conversion options, and an artifact by the grid and render
// options. The cache exploits that: keys are content hashes, entries never
// need invalidation beyond TTL expiry.
//
// Backends:
//   - FileCache: entries as files under a directory, for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLs per entry kind. Grids are small and cheap to keep; artifacts can be
// large HTML/PNG blobs and age out faster.
const (
	TTLGrid     = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
