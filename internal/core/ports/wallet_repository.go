package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// WalletRepository is the gateway to the persisted wallet row of an account.
// Every mutating call returns the committed snapshot, including its new
// server-assigned version.
type WalletRepository interface {
	// FetchWallet returns domain.ErrWalletNotFound when the account has no row yet.
	FetchWallet(ctx context.Context, accountID string) (*domain.Wallet, error)

	// UpsertWallet overwrites the fields set in patch, creating the row if needed.
	UpsertWallet(ctx context.Context, accountID string, patch domain.WalletPatch) (*domain.Wallet, error)

	// AdjustBalance atomically adds delta to the balance. A negative delta is
	// applied only when the stored balance covers it; otherwise nothing is
	// written and domain.ErrInsufficientFunds is returned.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (*domain.Wallet, error)

	// AdjustTickets is the ticket counterpart of AdjustBalance and fails with
	// domain.ErrInsufficientTickets.
	AdjustTickets(ctx context.Context, accountID string, delta int) (*domain.Wallet, error)

	// AccrueTicket adds one ticket and stamps the accrual time, unless the
	// previous accrual happened less than minGap before at. In that case it
	// returns domain.ErrAccrualNotDue.
	AccrueTicket(ctx context.Context, accountID string, at time.Time, minGap time.Duration) (*domain.Wallet, error)
}

// WalletPublisher announces committed wallet snapshots to subscribers.
type WalletPublisher interface {
	PublishWalletChange(ctx context.Context, w domain.Wallet) error
}

// WalletFeed delivers wallet snapshots pushed by the gateway.
type WalletFeed interface {
	// SubscribeWalletChanges registers onChange for the account's wallet row.
	// The returned func releases the subscription and is safe to call twice.
	SubscribeWalletChanges(ctx context.Context, accountID string, onChange func(domain.Wallet)) (unsubscribe func(), err error)
}

// WalletChangeHandler consumes wallet snapshots coming off the change feed.
type WalletChangeHandler interface {
	HandleWalletChange(ctx context.Context, w domain.Wallet) error
}
