package cache

import (
	"context"
	"time"
)

// Cache TTLs per pipeline stage. Graphs and layouts are cheap to keep fresh;
// rendered artifacts are the expensive stage and live longer.
const (
	TTLGraph    = 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 72 * time.Hour
)

// Cache is a byte store with optional expiration. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss; expired
	// entries count as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
