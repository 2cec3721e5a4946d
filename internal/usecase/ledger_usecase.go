package usecase

import (
	"context"

	"github.com/iho/walletledger/internal/domain"
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that every wallet's balance equals the signed sum
// of its log and that its version equals its record count. The discrepancies
// are returned together with ErrInconsistentLedger when any exist.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) ([]*domain.Discrepancy, error) {
	discrepancies, err := uc.ledgerRepo.FindDiscrepancies(ctx)
	if err != nil {
		return nil, err
	}

	if len(discrepancies) > 0 {
		return discrepancies, domain.ErrInconsistentLedger
	}

	return nil, nil
}
