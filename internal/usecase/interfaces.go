package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	// ReadForUpdate reads balance and version inside tx without taking a row lock.
	ReadForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Wallet, error)
	// UpdateBalanceIfVersion sets the balance and bumps the version only while the
	// stored version still equals expectedVersion. It returns the matched row count.
	UpdateBalanceIfVersion(ctx context.Context, tx Transaction, id int64, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) (int64, error)
}

// TransactionRepository defines data access for the append-only transaction log.
type TransactionRepository interface {
	Append(ctx context.Context, tx Transaction, record *domain.TransactionRecord) error
	ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]*domain.TransactionRecord, error)
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	FindDiscrepancies(ctx context.Context) ([]*domain.Discrepancy, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyCache maps idempotency keys to serialized results.
// A failing cache must be treated as empty by callers.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Retrier runs a fallible resource acquisition with bounded backoff.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Metrics receives engine and wallet outcomes.
type Metrics interface {
	ObserveTransaction(direction domain.Direction, outcome string, elapsed time.Duration)
	IncIdempotencyReplay()
	IncCacheError(operation string)
	IncWalletsCreated()
}
