package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// CartView is the cart as shown to the customer, with the total after the
// requested ticket redemption.
type CartView struct {
	Lines           []domain.CartLine
	Subtotal        decimal.Decimal
	TicketsRedeemed int
	Total           decimal.Decimal
}

// CheckoutInput carries the parameters of a checkout request.
type CheckoutInput struct {
	AccountID       string
	TicketsToRedeem int
	// IdempotencyKey is optional. A repeated key returns the first receipt.
	IdempotencyKey string
}

// CheckoutResult is returned after a successful checkout.
type CheckoutResult struct {
	Receipt domain.Receipt
	Token   string
	// Replayed is true when the receipt came from an earlier request with the
	// same idempotency key.
	Replayed bool
}

// ShopService exposes the per-account wallet, cart and checkout session.
type ShopService interface {
	Wallet(ctx context.Context, accountID string) (*domain.Wallet, error)
	TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Wallet, error)

	Cart(ctx context.Context, accountID string, ticketsRedeemed int) (*CartView, error)
	AddToCart(ctx context.Context, accountID, productID string, quantity int) (*domain.CartLine, error)
	RemoveFromCart(ctx context.Context, accountID, lineID string) error
	ClearCart(ctx context.Context, accountID string) error

	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)

	// EndSession tears down the account's session state.
	EndSession(accountID string)
}
