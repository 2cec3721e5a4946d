// Package retry wraps fallible resource acquisition with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Defaults used when a Config field is left zero.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 20 * time.Millisecond
	DefaultMultiplier      = 2.0
	DefaultMaxInterval     = 1 * time.Second
)

// Config controls the backoff schedule. MaxAttempts counts the first call.
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	// Retryable decides whether an error is worth another attempt.
	// Nil retries everything except context cancellation.
	Retryable func(error) bool
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	cfg    Config
	logger *zerolog.Logger
}

// New creates a Retrier. A nil logger disables retry logging.
func New(cfg Config, logger *zerolog.Logger) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.Retryable == nil {
		cfg.Retryable = notContextError
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Retrier{cfg: cfg, logger: logger}
}

// Retry runs operation until it succeeds, returns a non-retryable error,
// or the attempt budget runs out. The last error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	attempt := 0

	op := func() error {
		attempt++
		err := operation()
		if err == nil {
			return nil
		}
		if !r.cfg.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.cfg.MaxAttempts).
			Dur("backoff", wait).
			Msg("resource acquisition failed, retrying")
	}

	return backoff.RetryNotify(op, r.backoff(ctx), notify)
}

func (r *Retrier) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.Multiplier = r.cfg.Multiplier
	b.MaxInterval = r.cfg.MaxInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxAttempts-1)), ctx)
}

// Do is Retry for operations that produce a value.
func Do[T any](ctx context.Context, r *Retrier, operation func() (T, error)) (T, error) {
	var out T
	err := r.Retry(ctx, func() error {
		v, err := operation()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func notContextError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
