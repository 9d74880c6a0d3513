// Package cache is the two-tier TTL cache: redis when reachable at startup,
// an in-process map otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	sharedredis "github.com/AnassEREKYSY/MarketPulse/shared/redis"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// Options configures backend selection
type Options struct {
	RedisURL string
	// Clock drives local ttl checks; nil uses the real clock
	Clock clockwork.Clock
}

// Cache stores JSON-encoded values on a single backend chosen once at startup
type Cache struct {
	backend Backend
	client  *redis.Client
	logger  *slog.Logger
}

// New wraps an already selected backend
func New(backend Backend, logger *slog.Logger) *Cache {
	return &Cache{backend: backend, logger: logger}
}

// Open probes redis and falls back to the local backend for the lifetime of the
// process when it is not configured or cannot be reached. It never fails.
func Open(ctx context.Context, opts Options, logger *slog.Logger) *Cache {
	if opts.RedisURL != "" {
		client, err := sharedredis.NewClient(ctx, opts.RedisURL, logger)
		if err == nil {
			logger.Info("Cache backend selected", slog.String("backend", KindRedis))
			return &Cache{backend: NewRedisBackend(client), client: client, logger: logger}
		}

		logger.Warn("Redis unavailable, falling back to in-process cache",
			slog.Any("error", fmt.Errorf("%w: %v", domain.ErrCacheBackendUnavailable, err)),
		)
	}

	logger.Info("Cache backend selected", slog.String("backend", KindLocal))
	return &Cache{backend: NewLocalBackend(opts.Clock), logger: logger}
}

// Kind returns the selected backend kind
func (c *Cache) Kind() string {
	return c.backend.Kind()
}

// Backend returns the selected backend
func (c *Cache) Backend() Backend {
	return c.backend
}

// Close releases the redis connection, if any
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Get decodes the fresh value stored under key.
// Backend and decode failures are logged and reported as a miss.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T

	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Debug("Cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Debug("Cache entry undecodable, dropping", slog.String("key", key), slog.Any("error", err))
		_ = c.backend.Delete(ctx, key)
		return zero, false
	}
	return v, true
}

// Set encodes value and stores it under key for ttl
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	if err := c.backend.Set(ctx, key, data, ttl); err != nil {
		c.logger.Debug("Cache write failed", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

// Remove deletes key
func (c *Cache) Remove(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// RemoveByPattern deletes every key matching a glob pattern.
// Best effort: the local backend removes nothing.
func (c *Cache) RemoveByPattern(ctx context.Context, pattern string) (int, error) {
	return c.backend.DeleteByPattern(ctx, pattern)
}

// Cleanup evicts expired entries and returns how many were removed
func (c *Cache) Cleanup(ctx context.Context) (int, error) {
	n, err := c.backend.Sweep(ctx)
	if err != nil {
		return n, err
	}
	if n > 0 {
		c.logger.Debug("Cache sweep", slog.Int("evicted", n))
	}
	return n, nil
}
