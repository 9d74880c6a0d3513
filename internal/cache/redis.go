package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisBackend stores entries in redis; expiry is delegated to redis key ttls.
type RedisBackend struct {
	client redis.UniversalClient
}

func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrCacheBackendUnavailable, key, err)
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrCacheBackendUnavailable, key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", domain.ErrCacheBackendUnavailable, key, err)
	}
	return nil
}

// DeleteByPattern walks the keyspace with SCAN and deletes every match
func (b *RedisBackend) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := b.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: scan %s: %v", domain.ErrCacheBackendUnavailable, pattern, err)
		}

		if len(keys) > 0 {
			n, err := b.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("%w: del: %v", domain.ErrCacheBackendUnavailable, err)
			}
			removed += int(n)
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Sweep is a no-op, redis expires keys itself
func (b *RedisBackend) Sweep(context.Context) (int, error) {
	return 0, nil
}

func (b *RedisBackend) Kind() string {
	return KindRedis
}
