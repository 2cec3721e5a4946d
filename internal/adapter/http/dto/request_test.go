package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func TestAmountRequest_DecodesStringAndNumber(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string", body: `{"amount":"50"}`, want: "50"},
		{name: "number", body: `{"amount":50}`, want: "50"},
		{name: "large string", body: `{"amount":"900719925474099312345"}`, want: "900719925474099312345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AmountRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !req.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("amount = %s, want %s", req.Amount, tt.want)
			}
		})
	}
}

func TestAmountRequest_ToExecuteInput(t *testing.T) {
	req := &AmountRequest{Amount: decimal.NewFromInt(50)}

	got := req.ToExecuteInput(7, domain.DirectionDebit, "K1")
	want := usecase.ExecuteInput{
		IdempotencyKey: "K1",
		Direction:      domain.DirectionDebit,
		Amount:         decimal.NewFromInt(50),
		WalletID:       7,
	}

	if got.IdempotencyKey != want.IdempotencyKey || got.Direction != want.Direction ||
		got.WalletID != want.WalletID || !got.Amount.Equal(want.Amount) {
		t.Fatalf("ToExecuteInput() = %+v, want %+v", got, want)
	}
}
