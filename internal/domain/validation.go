package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxIdempotencyKeyLength = 255
	DefaultPageSize         = 20
	MaxPageSize             = 100

	// MaxAmountDigits bounds the number of integer digits in an amount.
	MaxAmountDigits = 38
)

var maxAmount = decimal.New(1, MaxAmountDigits)

// ValidateAmount accepts strictly positive whole amounts below 10^38.
// The exponent is range-checked before any arithmetic runs on the value.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if exp := amount.Exponent(); exp >= MaxAmountDigits || exp < -MaxAmountDigits {
		return fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, exp)
	}

	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: more than %d digits", ErrInvalidAmount, MaxAmountDigits)
	}

	if !amount.IsInteger() {
		return fmt.Errorf("%w: %s has a fractional part", ErrInvalidAmount, amount)
	}

	return nil
}

// ValidateIdempotencyKey validates a caller-supplied idempotency key
func ValidateIdempotencyKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrMissingIdempotencyKey
	}

	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: key exceeds %d characters", ErrMissingIdempotencyKey, MaxIdempotencyKeyLength)
	}

	return nil
}

// ValidateWalletID validates a wallet identifier
func ValidateWalletID(id int64) error {
	if id <= 0 {
		return ErrInvalidWalletID
	}
	return nil
}

// ValidateUserID validates a user identifier
func ValidateUserID(id int64) error {
	if id <= 0 {
		return ErrInvalidUserID
	}
	return nil
}

// ValidatePagination clamps pagination parameters to sane bounds.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
