package catalog

import (
	"context"
	"time"
)

// Cache memoizes read-only query results. It is never authoritative.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	RemoveByPattern(ctx context.Context, pattern string) error
}
