package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	WalletID  int64           `json:"wallet_id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletFromDomain converts domain wallet to response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		WalletID:  w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// CreateWalletResponse is returned by wallet creation.
type CreateWalletResponse struct {
	WalletID int64           `json:"wallet_id"`
	Balance  decimal.Decimal `json:"balance"`
}

// ExecuteResponse is returned by credit and debit.
type ExecuteResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// ExecuteFromResult converts an engine result to response.
func ExecuteFromResult(r *usecase.ExecuteResult) *ExecuteResponse {
	return &ExecuteResponse{Balance: r.Balance}
}

// TransactionResponse represents a transaction record in API responses.
type TransactionResponse struct {
	ID             string          `json:"id"`
	WalletID       int64           `json:"wallet_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	WalletVersion  int64           `json:"wallet_version"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain record to response.
func TransactionFromDomain(r *domain.TransactionRecord) *TransactionResponse {
	return &TransactionResponse{
		ID:             r.ID,
		WalletID:       r.WalletID,
		Type:           string(r.Direction),
		Amount:         r.Amount,
		Status:         string(r.Status),
		IdempotencyKey: r.IdempotencyKey,
		BalanceAfter:   r.BalanceAfter,
		WalletVersion:  r.WalletVersion,
		CreatedAt:      r.CreatedAt,
	}
}

// TransactionsFromDomain converts domain records to responses.
func TransactionsFromDomain(records []*domain.TransactionRecord) []*TransactionResponse {
	result := make([]*TransactionResponse, len(records))
	for i, r := range records {
		result[i] = TransactionFromDomain(r)
	}
	return result
}

// ListTransactionsResponse represents a page of transaction history.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// DiscrepancyResponse describes one wallet whose balance disagrees with its records.
type DiscrepancyResponse struct {
	WalletID        int64           `json:"wallet_id"`
	RecordedBalance decimal.Decimal `json:"recorded_balance"`
	LoggedBalance   decimal.Decimal `json:"logged_balance"`
	Difference      decimal.Decimal `json:"difference"`
	RecordedVersion int64           `json:"recorded_version"`
	LoggedCount     int64           `json:"logged_count"`
}

// DiscrepanciesFromDomain converts discrepancies to responses.
func DiscrepanciesFromDomain(ds []*domain.Discrepancy) []*DiscrepancyResponse {
	result := make([]*DiscrepancyResponse, len(ds))
	for i, d := range ds {
		result[i] = &DiscrepancyResponse{
			WalletID:        d.WalletID,
			RecordedBalance: d.RecordedBalance,
			LoggedBalance:   d.LoggedBalance,
			Difference:      d.Difference(),
			RecordedVersion: d.RecordedVersion,
			LoggedCount:     d.LoggedCount,
		}
	}
	return result
}

// ConsistencyResponse is returned by the ledger consistency check.
type ConsistencyResponse struct {
	Status        string                 `json:"status"`
	Consistent    bool                   `json:"consistent"`
	Discrepancies []*DiscrepancyResponse `json:"discrepancies,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
