package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// ShopService serves the customer-facing wallet, cart and checkout
// operations on top of the session registry.
type ShopService struct {
	sessions *SessionRegistry
	products ports.ProductRepository
	checkout *CheckoutService
	log      zerolog.Logger
}

var _ ports.ShopService = (*ShopService)(nil)

func NewShopService(sessions *SessionRegistry, products ports.ProductRepository, checkout *CheckoutService, log zerolog.Logger) *ShopService {
	return &ShopService{
		sessions: sessions,
		products: products,
		checkout: checkout,
		log:      log,
	}
}

func (s *ShopService) Wallet(ctx context.Context, accountID string) (*domain.Wallet, error) {
	sess, err := s.sessions.Open(ctx, accountID)
	if err != nil {
		return nil, err
	}
	w, err := sess.Wallet.Snapshot()
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// TopUp credits a positive amount to the caller's own wallet.
func (s *ShopService) TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	sess, err := s.sessions.Open(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := sess.Wallet.Credit(ctx, amount); err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}

	w, err := sess.Wallet.Snapshot()
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("account_id", accountID).
		Str("amount", amount.StringFixed(2)).
		Str("balance", w.Balance.StringFixed(2)).
		Msg("wallet topped up")
	return &w, nil
}

func (s *ShopService) Cart(ctx context.Context, accountID string, ticketsRedeemed int) (*ports.CartView, error) {
	if ticketsRedeemed < 0 {
		return nil, domain.ErrInvalidTickets
	}
	sess, err := s.sessions.Open(ctx, accountID)
	if err != nil {
		return nil, err
	}
	snap := sess.Cart.Snapshot(s.checkout.Policy(), ticketsRedeemed)
	return &ports.CartView{
		Lines:           snap.Lines,
		Subtotal:        snap.Subtotal,
		TicketsRedeemed: snap.TicketsRedeemed,
		Total:           snap.Total,
	}, nil
}

// AddToCart prices the line from the catalog, never from client input.
func (s *ShopService) AddToCart(ctx context.Context, accountID, productID string, quantity int) (*domain.CartLine, error) {
	sess, err := s.sessions.Open(ctx, accountID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	sess.busy.Lock()
	defer sess.busy.Unlock()
	line, err := sess.Cart.AddItem(*product, quantity)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *ShopService) RemoveFromCart(ctx context.Context, accountID, lineID string) error {
	sess, err := s.sessions.Open(ctx, accountID)
	if err != nil {
		return err
	}
	sess.busy.Lock()
	defer sess.busy.Unlock()
	sess.Cart.RemoveItem(lineID)
	return nil
}

func (s *ShopService) ClearCart(ctx context.Context, accountID string) error {
	sess, err := s.sessions.Open(ctx, accountID)
	if err != nil {
		return err
	}
	sess.busy.Lock()
	defer sess.busy.Unlock()
	sess.Cart.Clear()
	return nil
}

// Checkout pays for the session's cart. Checkouts on one session run one
// at a time; a second submit of an already paid cart sees it empty, or
// replays the receipt when it carries the same idempotency key.
func (s *ShopService) Checkout(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
	sess, err := s.sessions.Open(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	sess.busy.Lock()
	defer sess.busy.Unlock()
	return s.checkout.Checkout(ctx, CheckoutRequest{
		Wallet:          sess.Wallet,
		Cart:            sess.Cart,
		TicketsToRedeem: in.TicketsToRedeem,
		IdempotencyKey:  in.IdempotencyKey,
	})
}

func (s *ShopService) EndSession(accountID string) {
	s.sessions.End(accountID)
}
