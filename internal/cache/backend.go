package cache

import (
	"context"
	"time"
)

// Backend kinds
const (
	KindRedis = "redis"
	KindLocal = "local"
)

// Backend stores encoded values under string keys.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the stored bytes, or domain.ErrCacheMiss when the key has no fresh entry
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPattern removes keys matching a glob pattern and returns how many were removed
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	// Sweep evicts expired entries that were never read again
	Sweep(ctx context.Context) (int, error)
	Kind() string
}
