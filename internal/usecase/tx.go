package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
)

// beginTx acquires a transaction, retrying acquisition failures with backoff.
// Failures that survive the retry budget are reported as ErrResourceUnavailable
// unless the caller's context ended first.
func beginTx(ctx context.Context, txManager TransactionManager, retrier Retrier) (Transaction, error) {
	var tx Transaction

	begin := func() error {
		var err error
		tx, err = txManager.Begin(ctx)
		return err
	}

	var err error
	if retrier != nil {
		err = retrier.Retry(ctx, begin)
	} else {
		err = begin()
	}

	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrResourceUnavailable, err)
	}

	return tx, nil
}

// rollbackTx releases tx on every exit path. After a commit it is a no-op.
// It uses a detached context so cancelled callers still free their connection.
func rollbackTx(ctx context.Context, tx Transaction, logger *zerolog.Logger) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := tx.Rollback(rctx); err != nil {
		logger.Warn().Err(err).Msg("rollback failed")
	}
}
