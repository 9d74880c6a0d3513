package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyURL is returned when no redis url is configured
var ErrEmptyURL = errors.New("redis url is required")

const connectionTimeout = 2 * time.Second

// NewClient parses url and verifies connectivity with a ping
func NewClient(ctx context.Context, url string, logger *slog.Logger) (*redis.Client, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	logger.Info("Connecting to Redis", slog.String("addr", opts.Addr), slog.Int("db", opts.DB))

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Successfully connected to Redis", slog.String("addr", opts.Addr))

	return client, nil
}
