package postgres

import (
	"context"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// Append writes a transaction record inside tx.
func (r *TransactionRepository) Append(ctx context.Context, tx usecase.Transaction, record *domain.TransactionRecord) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:             record.ID,
		WalletID:       record.WalletID,
		Amount:         decimalToNumeric(record.Amount),
		Type:           string(record.Direction),
		Status:         string(record.Status),
		IdempotencyKey: stringPtrToText(record.IdempotencyKey),
		BalanceAfter:   decimalToNumeric(record.BalanceAfter),
		WalletVersion:  record.WalletVersion,
		CreatedAt:      timeToPgTimestamptz(record.CreatedAt),
	})
}

// ListByWallet lists a wallet's records, newest version first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]*domain.TransactionRecord, error) {
	rows, err := r.queries.ListTransactionsByWallet(ctx, generated.ListTransactionsByWalletParams{
		WalletID: walletID,
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	records := make([]*domain.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToTransaction(row))
	}

	return records, nil
}

func rowToTransaction(row generated.Transaction) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:             row.ID,
		WalletID:       row.WalletID,
		Direction:      domain.Direction(row.Type),
		Status:         domain.TransactionStatus(row.Status),
		Amount:         numericToDecimal(row.Amount),
		IdempotencyKey: textToStringPtr(row.IdempotencyKey),
		BalanceAfter:   numericToDecimal(row.BalanceAfter),
		WalletVersion:  row.WalletVersion,
		CreatedAt:      row.CreatedAt.Time,
	}
}
