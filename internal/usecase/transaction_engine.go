package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/iho/walletledger/internal/domain"
)

// ExecuteInput is a single credit or debit request.
type ExecuteInput struct {
	IdempotencyKey string
	Direction      domain.Direction
	Amount         decimal.Decimal
	WalletID       int64
}

// Validate checks the request before any I/O happens.
func (in ExecuteInput) Validate() error {
	if err := domain.ValidateWalletID(in.WalletID); err != nil {
		return err
	}
	if !in.Direction.Valid() {
		return domain.ErrInvalidDirection
	}
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	return domain.ValidateIdempotencyKey(in.IdempotencyKey)
}

// ExecuteResult is what the engine returns and what the idempotency cache stores.
type ExecuteResult struct {
	Balance decimal.Decimal `json:"balance"`
	// Replayed is set when the result came from the idempotency cache.
	Replayed bool `json:"-"`
}

// EngineConfig wires the collaborators of a TransactionEngine.
// Cache, Retrier, Metrics and Logger are optional. A zero Timeout means
// DefaultExecuteTimeout.
type EngineConfig struct {
	TxManager    TransactionManager
	Wallets      WalletRepository
	Transactions TransactionRepository
	Cache        IdempotencyCache
	Retrier      Retrier
	IDGen        IDGenerator
	Metrics      Metrics
	Logger       *zerolog.Logger
	CacheTTL     time.Duration
	Timeout      time.Duration
}

// TransactionEngine applies credits and debits to wallets using a
// version-checked conditional update, deduplicating by idempotency key.
type TransactionEngine struct {
	txManager    TransactionManager
	wallets      WalletRepository
	transactions TransactionRepository
	cache        IdempotencyCache
	retrier      Retrier
	idGen        IDGenerator
	metrics      Metrics
	logger       *zerolog.Logger
	cacheTTL     time.Duration
	timeout      time.Duration

	inflight singleflight.Group
}

// NewTransactionEngine creates a new TransactionEngine.
func NewTransactionEngine(cfg EngineConfig) *TransactionEngine {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	m := cfg.Metrics
	if m == nil {
		m = NopMetrics{}
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = IdempotencyKeyTTL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExecuteTimeout
	}

	return &TransactionEngine{
		txManager:    cfg.TxManager,
		wallets:      cfg.Wallets,
		transactions: cfg.Transactions,
		cache:        cfg.Cache,
		retrier:      cfg.Retrier,
		idGen:        cfg.IDGen,
		metrics:      m,
		logger:       logger,
		cacheTTL:     ttl,
		timeout:      timeout,
	}
}

// Execute applies one credit or debit.
//
// A cached result for the idempotency key is returned without touching the
// store. Otherwise the wallet is read, the new balance computed and written
// only if the wallet version is unchanged, and a transaction record appended,
// all in one store transaction. ErrConcurrencyConflict means no mutation
// happened and the caller may retry with the same key.
func (e *TransactionEngine) Execute(ctx context.Context, input ExecuteInput) (*ExecuteResult, error) {
	if err := input.Validate(); err != nil {
		e.metrics.ObserveTransaction(input.Direction, OutcomeInvalid, 0)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Identical keys in flight in this process share one execution. It runs
	// detached from any single caller and is bounded by the engine timeout;
	// each caller waits only as long as its own context allows.
	ch := e.inflight.DoChan(input.IdempotencyKey, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		return e.execute(sctx, input)
	})

	var v interface{}
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		v = r.Val
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res := *v.(*ExecuteResult)
	return &res, nil
}

func (e *TransactionEngine) execute(ctx context.Context, input ExecuteInput) (*ExecuteResult, error) {
	start := time.Now()

	if cached, ok := e.lookup(ctx, input.IdempotencyKey); ok {
		e.metrics.IncIdempotencyReplay()
		e.metrics.ObserveTransaction(input.Direction, OutcomeReplayed, time.Since(start))
		e.logger.Debug().
			Str("idempotency_key", input.IdempotencyKey).
			Int64("wallet_id", input.WalletID).
			Msg("idempotent replay")
		return cached, nil
	}

	result, err := e.apply(ctx, input)
	outcome := outcomeOf(err)
	e.metrics.ObserveTransaction(input.Direction, outcome, time.Since(start))
	if err != nil {
		switch outcome {
		case OutcomeConflict:
			e.logger.Debug().Int64("wallet_id", input.WalletID).Str("idempotency_key", input.IdempotencyKey).Msg("lost optimistic race")
		case OutcomeUnavailable:
			e.logger.Error().Err(err).Int64("wallet_id", input.WalletID).Msg("store unavailable after retries")
		}
		return nil, err
	}

	e.remember(ctx, input.IdempotencyKey, result)

	return result, nil
}

func (e *TransactionEngine) apply(ctx context.Context, input ExecuteInput) (*ExecuteResult, error) {
	tx, err := beginTx(ctx, e.txManager, e.retrier)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx, e.logger)

	wallet, err := e.wallets.ReadForUpdate(ctx, tx, input.WalletID)
	if err != nil {
		return nil, err
	}

	newBalance, err := wallet.Apply(input.Direction, input.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	rows, err := e.wallets.UpdateBalanceIfVersion(ctx, tx, wallet.ID, newBalance, wallet.Version, now)
	if err != nil {
		return nil, err
	}
	switch {
	case rows == 0:
		return nil, domain.ErrConcurrencyConflict
	case rows != 1:
		return nil, fmt.Errorf("conditional update matched %d wallets", rows)
	}

	key := input.IdempotencyKey
	record := &domain.TransactionRecord{
		ID:             e.idGen.Generate(),
		WalletID:       wallet.ID,
		Direction:      input.Direction,
		Amount:         input.Amount,
		Status:         domain.TransactionStatusSuccess,
		IdempotencyKey: &key,
		BalanceAfter:   newBalance,
		WalletVersion:  wallet.NextVersion(),
		CreatedAt:      now,
	}
	if err := e.transactions.Append(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit wallet transaction: %w", err)
	}

	return &ExecuteResult{Balance: newBalance}, nil
}

// lookup treats every cache failure as a miss.
func (e *TransactionEngine) lookup(ctx context.Context, key string) (*ExecuteResult, bool) {
	if e.cache == nil {
		return nil, false
	}

	raw, found, err := e.cache.Get(ctx, key)
	if err != nil {
		e.metrics.IncCacheError(CacheOpGet)
		e.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency cache lookup failed")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var res ExecuteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		e.metrics.IncCacheError(CacheOpDecode)
		e.logger.Warn().Err(err).Str("idempotency_key", key).Msg("discarding unreadable idempotency entry")
		return nil, false
	}
	res.Replayed = true

	return &res, true
}

// remember stores a committed result. Failures are logged and swallowed.
func (e *TransactionEngine) remember(ctx context.Context, key string, result *ExecuteResult) {
	if e.cache == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		e.metrics.IncCacheError(CacheOpSet)
		e.logger.Error().Err(err).Msg("encode idempotency entry")
		return
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()

	if err := e.cache.Set(cctx, key, raw, e.cacheTTL); err != nil {
		e.metrics.IncCacheError(CacheOpSet)
		e.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency cache write failed")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, domain.ErrWalletNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return OutcomeInsufficientFunds
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return OutcomeConflict
	case errors.Is(err, domain.ErrResourceUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
