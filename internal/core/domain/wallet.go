package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the spendable balance and loyalty ticket count of one account.
//
// Version is assigned by the store and grows with every committed write to the
// row. It is the only ordering used to reconcile local state with pushed
// snapshots; client clocks are never compared.
type Wallet struct {
	AccountID     string          `json:"account_id"`
	Balance       decimal.Decimal `json:"balance"`
	Tickets       int             `json:"tickets"`
	LastAccrualAt time.Time       `json:"last_accrual_at"`
	Version       int64           `json:"version"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EmptyWallet is the wallet of an account that has never been written.
func EmptyWallet(accountID string) Wallet {
	return Wallet{AccountID: accountID, Balance: decimal.Zero}
}

// NewerThan reports whether w supersedes other.
func (w Wallet) NewerThan(other Wallet) bool {
	return w.Version > other.Version
}

// WalletPatch carries the optional fields of an upsert.
type WalletPatch struct {
	Balance *decimal.Decimal
	Tickets *int
}
