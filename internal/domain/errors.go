package domain

import "errors"

var (
	// Wallet errors
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrConcurrencyConflict = errors.New("wallet was modified concurrently")

	// Infrastructure errors
	ErrResourceUnavailable = errors.New("resource unavailable")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")

	// Ledger errors
	ErrInconsistentLedger = errors.New("ledger is inconsistent")

	// Input errors
	ErrInvalidAmount         = errors.New("amount must be a positive integer")
	ErrInvalidDirection      = errors.New("direction must be CREDIT or DEBIT")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrInvalidWalletID       = errors.New("wallet id must be a positive integer")
	ErrInvalidUserID         = errors.New("user id must be a positive integer")
)
