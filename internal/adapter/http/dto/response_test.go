package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func TestWalletFromDomain(t *testing.T) {
	now := time.Now()
	wallet := &domain.Wallet{
		ID:        3,
		UserID:    9,
		Balance:   decimal.RequireFromString("150"),
		Version:   2,
		CreatedAt: now,
		UpdatedAt: now,
	}

	resp := WalletFromDomain(wallet)
	if resp.WalletID != 3 || resp.UserID != 9 || resp.Version != 2 || resp.Balance.String() != "150" {
		t.Fatalf("unexpected wallet response: %+v", resp)
	}
}

func TestExecuteResponse_BalanceIsString(t *testing.T) {
	raw, err := json.Marshal(ExecuteFromResult(&usecase.ExecuteResult{Balance: decimal.NewFromInt(150), Replayed: true}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(raw) != `{"balance":"150"}` {
		t.Fatalf("unexpected body %s", raw)
	}
}

func TestTransactionFromDomain(t *testing.T) {
	key := "K1"
	record := &domain.TransactionRecord{
		ID:             "01J0000000000000000000000",
		WalletID:       1,
		Direction:      domain.DirectionCredit,
		Amount:         decimal.NewFromInt(50),
		Status:         domain.TransactionStatusSuccess,
		IdempotencyKey: &key,
		BalanceAfter:   decimal.NewFromInt(150),
		WalletVersion:  1,
	}

	resp := TransactionFromDomain(record)
	if resp.Type != "CREDIT" || resp.Status != "SUCCESS" || resp.IdempotencyKey == nil || *resp.IdempotencyKey != "K1" {
		t.Fatalf("unexpected transaction response: %+v", resp)
	}

	list := TransactionsFromDomain([]*domain.TransactionRecord{record, record})
	if len(list) != 2 || list[1].ID != record.ID {
		t.Fatalf("TransactionsFromDomain returned %+v", list)
	}
}

func TestDiscrepanciesFromDomain(t *testing.T) {
	list := DiscrepanciesFromDomain([]*domain.Discrepancy{{
		WalletID:        4,
		RecordedBalance: decimal.NewFromInt(120),
		LoggedBalance:   decimal.NewFromInt(100),
		RecordedVersion: 3,
		LoggedCount:     2,
	}})

	if len(list) != 1 {
		t.Fatalf("expected 1 discrepancy, got %d", len(list))
	}
	if !list[0].Difference.Equal(decimal.NewFromInt(20)) || list[0].LoggedCount != 2 {
		t.Fatalf("unexpected discrepancy response: %+v", list[0])
	}
}
