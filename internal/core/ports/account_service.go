package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// UpdateAccountInput carries the editable account fields. All are required.
type UpdateAccountInput struct {
	ID         string
	Name       string
	Email      string
	Active     bool
	ClassGroup string
}

// SetWalletInput overwrites an account wallet. Nil fields are left untouched.
type SetWalletInput struct {
	AccountID string
	Balance   *decimal.Decimal
	Tickets   *int
}

// AccountService holds the administrator operations on accounts.
type AccountService interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, in UpdateAccountInput) (*domain.Account, error)
	SetWallet(ctx context.Context, in SetWalletInput) (*domain.Wallet, error)
}
