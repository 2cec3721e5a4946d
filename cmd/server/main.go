package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/walletledger/internal/adapter/http"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/walletledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/walletledger/internal/adapter/repository/redis"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/redis"
	"github.com/iho/walletledger/internal/infrastructure/retry"
	"github.com/iho/walletledger/internal/usecase"
)

const rateLimiterCleanupInterval = time.Hour

func main() {
	zerolog.DurationFieldUnit = time.Millisecond

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Format: "json"})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.DatabaseAutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.DatabaseMigrationsPath, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := connectCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	retrier := retry.New(retryConfig(cfg), &log)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	engineCfg := usecase.EngineConfig{
		TxManager:    txManager,
		Wallets:      walletRepo,
		Transactions: transactionRepo,
		Cache:        newIdempotencyCache(redisClient, cfg, &log),
		Retrier:      retrier,
		IDGen:        idGen,
		Metrics:      m,
		Logger:       &log,
		CacheTTL:     cfg.IdempotencyTTL,
		Timeout:      cfg.ExecuteTimeout,
	}

	// Initialize use cases
	engine := usecase.NewTransactionEngine(engineCfg)
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, transactionRepo, retrier, m).WithLogger(&log)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)

	routerCfg := httpAdapter.RouterConfig{
		WalletHandler: handler.NewWalletHandler(walletUC, engine),
		LedgerHandler: handler.NewLedgerHandler(ledgerUC),
		HealthHandler: handler.NewHealthHandler(pool, redisClient),
		Logger:        log,
		Metrics:       m,
	}

	if cfg.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		routerCfg.RateLimiter = rl
		go cleanupLimiters(ctx, rl)
	}

	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		log.Info().Msg("bearer authentication enabled")
	}

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	return serve(ctx, server, cfg.HTTPShutdownTimeout, log)
}

// connectCache builds the Redis client. go-redis dials on demand, so a failed
// startup ping only stops the server when Redis is required; otherwise the
// idempotency cache starts answering once Redis is reachable.
func connectCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*goredis.Client, error) {
	client, err := redis.New(redis.Config{URL: cfg.RedisURL})
	if err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		if cfg.RedisRequired {
			client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Warn().Err(err).Msg("redis unreachable at startup, idempotency cache will reconnect on demand")
		return client, nil
	}

	log.Info().Msg("connected to redis")
	return client, nil
}

func newIdempotencyCache(client goredis.Cmdable, cfg *config.Config, log *zerolog.Logger) *redisRepo.IdempotencyCache {
	return redisRepo.NewIdempotencyCache(client, redisRepo.CacheConfig{
		BreakerFailures: cfg.CacheBreakerFailures,
		BreakerCooldown: cfg.CacheBreakerCooldown,
	}, log)
}

func retryConfig(cfg *config.Config) retry.Config {
	return retry.Config{
		MaxAttempts:     cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		Multiplier:      retry.DefaultMultiplier,
		MaxInterval:     cfg.RetryMaxInterval,
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// serve runs server until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return <-errCh
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(rateLimiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters()
		}
	}
}
