package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// CreateWalletRequest represents a request to create a wallet.
type CreateWalletRequest struct {
	UserID int64 `json:"user_id"`
}

// AmountRequest is the body of a credit or debit call. Amount accepts a JSON
// string or number.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ToExecuteInput converts to engine input.
func (r *AmountRequest) ToExecuteInput(walletID int64, direction domain.Direction, key string) usecase.ExecuteInput {
	return usecase.ExecuteInput{
		IdempotencyKey: key,
		Direction:      direction,
		Amount:         r.Amount,
		WalletID:       walletID,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
