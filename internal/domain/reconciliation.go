package domain

import "github.com/shopspring/decimal"

// Discrepancy describes a wallet whose stored state disagrees with its transaction log.
type Discrepancy struct {
	WalletID        int64
	RecordedBalance decimal.Decimal
	LoggedBalance   decimal.Decimal
	RecordedVersion int64
	LoggedCount     int64
}

// Difference is recorded minus logged balance.
func (d *Discrepancy) Difference() decimal.Decimal {
	return d.RecordedBalance.Sub(d.LoggedBalance)
}
