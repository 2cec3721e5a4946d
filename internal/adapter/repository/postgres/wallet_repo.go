package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	queries *generated.Queries
}

// NewWalletRepository creates a new WalletRepository. db serves reads made
// outside a transaction, usually a *pgxpool.Pool.
func NewWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{
		queries: generated.New(db),
	}
}

// Create inserts a wallet and fills in its generated ID.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	row, err := queries.CreateWallet(ctx, generated.CreateWalletParams{
		UserID:    wallet.UserID,
		Balance:   decimalToNumeric(wallet.Balance),
		Version:   wallet.Version,
		CreatedAt: timeToPgTimestamptz(wallet.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(wallet.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}

	*wallet = *rowToWallet(row)

	return nil
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// ReadForUpdate reads the wallet inside tx. No row lock is taken: the
// conditional update detects concurrent writers instead.
func (r *WalletRepository) ReadForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Wallet, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetWalletByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

// UpdateBalanceIfVersion is a single compare-and-swap statement on the wallet
// version. Zero rows means another writer committed first.
func (r *WalletRepository) UpdateBalanceIfVersion(
	ctx context.Context,
	tx usecase.Transaction,
	id int64,
	balance decimal.Decimal,
	expectedVersion int64,
	updatedAt time.Time,
) (int64, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return 0, err
	}

	return queries.UpdateWalletBalanceIfVersion(ctx, generated.UpdateWalletBalanceIfVersionParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		Version:   expectedVersion,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
}

func rowToWallet(row generated.Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:        row.ID,
		UserID:    row.UserID,
		Balance:   numericToDecimal(row.Balance),
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
