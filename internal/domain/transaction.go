package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a wallet transaction.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Sign returns +1 for credits and -1 for debits.
func (d Direction) Sign() int {
	if d == DirectionDebit {
		return -1
	}
	return 1
}

// ParseDirection parses a case-sensitive direction name.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", ErrInvalidDirection
	}
	return d, nil
}

// TransactionStatus is the outcome recorded in the transaction log.
type TransactionStatus string

// Only committed attempts reach the log, so SUCCESS is the only status written today.
const TransactionStatusSuccess TransactionStatus = "SUCCESS"

// TransactionRecord is an immutable log entry for one committed credit or debit.
type TransactionRecord struct {
	CreatedAt      time.Time
	IdempotencyKey *string
	ID             string
	Direction      Direction
	Status         TransactionStatus
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	WalletID       int64
	WalletVersion  int64
}

// SignedAmount is the effect of the record on the wallet balance.
func (r *TransactionRecord) SignedAmount() decimal.Decimal {
	if r.Direction == DirectionDebit {
		return r.Amount.Neg()
	}
	return r.Amount
}
