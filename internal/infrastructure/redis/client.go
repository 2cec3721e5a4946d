package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The idempotency cache sits on the request path, so its timeouts are much
// shorter than go-redis defaults.
const (
	defaultDialTimeout = 500 * time.Millisecond
	defaultIOTimeout   = 250 * time.Millisecond
)

// Config holds Redis connection settings. Zero timeouts use package defaults.
type Config struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates a Redis client without contacting the server. Connections are
// dialled on first use and redialled after failures.
func New(cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opts.DialTimeout = orDefault(cfg.DialTimeout, defaultDialTimeout)
	opts.ReadTimeout = orDefault(cfg.ReadTimeout, defaultIOTimeout)
	opts.WriteTimeout = orDefault(cfg.WriteTimeout, defaultIOTimeout)

	return redis.NewClient(opts), nil
}

// NewClient creates a new Redis client and verifies it with a PING.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client, err := New(cfg)
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
