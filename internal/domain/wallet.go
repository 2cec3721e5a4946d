package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a non-negative integer balance guarded by a version stamp.
// Version starts at 0 and grows by exactly one with every committed mutation.
type Wallet struct {
	ID        int64
	UserID    int64
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if the wallet can be debited by amount.
func (w *Wallet) ValidateDebit(amount decimal.Decimal) error {
	if w.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// Apply returns the balance that results from moving amount in direction.
// The wallet itself is not modified.
func (w *Wallet) Apply(direction Direction, amount decimal.Decimal) (decimal.Decimal, error) {
	switch direction {
	case DirectionCredit:
		return w.Balance.Add(amount), nil
	case DirectionDebit:
		if err := w.ValidateDebit(amount); err != nil {
			return decimal.Zero, err
		}
		return w.Balance.Sub(amount), nil
	default:
		return decimal.Zero, ErrInvalidDirection
	}
}

// NextVersion is the version the wallet reaches after one more mutation.
func (w *Wallet) NextVersion() int64 {
	return w.Version + 1
}
