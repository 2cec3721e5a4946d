package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const keyPrefix = "idempotency:"

// ErrCacheUnavailable is returned while the circuit breaker is open.
var ErrCacheUnavailable = errors.New("idempotency cache unavailable")

// CacheConfig tunes the circuit breaker and per-call timeout.
type CacheConfig struct {
	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration
	// OpTimeout bounds a single GET or SET.
	OpTimeout time.Duration
}

// IdempotencyCache implements usecase.IdempotencyCache using Redis.
// Calls go through a circuit breaker so an unreachable Redis costs one fast
// failure per request instead of a network timeout.
type IdempotencyCache struct {
	client    redis.Cmdable
	prefix    string
	cb        *gobreaker.CircuitBreaker
	opTimeout time.Duration
}

// NewIdempotencyCache creates a new IdempotencyCache.
func NewIdempotencyCache(client redis.Cmdable, cfg CacheConfig, logger *zerolog.Logger) *IdempotencyCache {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 500 * time.Millisecond
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	failures := cfg.BreakerFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "idempotency-cache",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &IdempotencyCache{
		client:    client,
		prefix:    keyPrefix,
		cb:        cb,
		opTimeout: cfg.OpTimeout,
	}
}

// Get returns the stored result for key. A missing key is not an error.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	res, err := c.cb.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return nil, false, c.wrap("get", err)
	}

	val, _ := res.([]byte)
	if val == nil {
		return nil, false, nil
	}

	return val, true, nil
}

// Set stores value under key for ttl.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	})
	if err != nil {
		return c.wrap("set", err)
	}

	return nil
}

// State reports the breaker state, for readiness checks.
func (c *IdempotencyCache) State() gobreaker.State {
	return c.cb.State()
}

func (c *IdempotencyCache) wrap(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %w: %w", op, ErrCacheUnavailable, err)
	}
	return fmt.Errorf("idempotency cache %s: %w", op, err)
}
