package ports

import (
	"context"
	"time"
)

// Cache abstracts the key/value cache used by the cache-aside layer.
//
// Get reports whether the key was present and, when it was, decodes the
// stored value into dest. Implementations own the serialization format.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Remove(ctx context.Context, keys ...string) error
}
