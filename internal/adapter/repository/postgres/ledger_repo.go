package postgres

import (
	"context"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// FindDiscrepancies returns wallets whose balance or version disagrees with
// their SUCCESS transaction records.
func (r *LedgerRepository) FindDiscrepancies(ctx context.Context) ([]*domain.Discrepancy, error) {
	rows, err := r.queries.FindWalletDiscrepancies(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Discrepancy, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.Discrepancy{
			WalletID:        row.WalletID,
			RecordedBalance: numericToDecimal(row.RecordedBalance),
			LoggedBalance:   numericToDecimal(row.LoggedBalance),
			RecordedVersion: row.RecordedVersion,
			LoggedCount:     row.LoggedCount,
		})
	}

	return out, nil
}
