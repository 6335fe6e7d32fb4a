package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/api/metrics"
	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const compensationTimeout = 15 * time.Second

// CheckoutWallet is the slice of WalletManager used by checkout.
type CheckoutWallet interface {
	AccountID() string
	Snapshot() (domain.Wallet, error)
	Debit(ctx context.Context, amount decimal.Decimal) error
	DebitTickets(ctx context.Context, count int) error
	Credit(ctx context.Context, amount decimal.Decimal) error
	CreditTickets(ctx context.Context, count int) error
}

// CheckoutCart is the slice of Cart used by checkout.
type CheckoutCart interface {
	Snapshot(policy domain.DiscountPolicy, ticketsRedeemed int) CartSnapshot
	Clear()
}

// CheckoutRequest binds one checkout to a session's wallet and cart.
type CheckoutRequest struct {
	Wallet          CheckoutWallet
	Cart            CheckoutCart
	TicketsToRedeem int
	IdempotencyKey  string
}

// CheckoutService converts a cart into a recorded purchase.
//
// The steps run in a fixed order: redeem tickets, debit the balance, insert
// the purchase, insert its lines, clear the cart. Each completed write
// registers a reversal; if a later step fails the reversals run newest first
// so the wallet and purchase history end up as they were before the call.
type CheckoutService struct {
	purchases ports.PurchaseRepository
	receipts  ports.ReceiptStore
	policy    domain.DiscountPolicy
	log       zerolog.Logger
	now       func() time.Time
}

// NewCheckoutService creates a CheckoutService. receipts may be nil, in which
// case idempotency keys are ignored.
func NewCheckoutService(
	purchases ports.PurchaseRepository,
	receipts ports.ReceiptStore,
	policy domain.DiscountPolicy,
	log zerolog.Logger,
) *CheckoutService {
	if policy == nil {
		policy = domain.NoDiscount
	}
	return &CheckoutService{
		purchases: purchases,
		receipts:  receipts,
		policy:    policy,
		log:       log,
		now:       time.Now,
	}
}

// Policy returns the discount policy carts are priced with.
func (s *CheckoutService) Policy() domain.DiscountPolicy {
	return s.policy
}

// Checkout validates and executes req. Validation failures
// (domain.ErrNotAuthenticated, domain.ErrEmptyCart, domain.ErrInvalidTickets,
// domain.ErrInsufficientTickets, domain.ErrInsufficientFunds) leave every
// store untouched.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*ports.CheckoutResult, error) {
	start := time.Now()

	result, err := s.checkout(ctx, req)

	outcome := checkoutOutcome(result, err)
	metrics.CheckoutsTotal.WithLabelValues(outcome).Inc()
	metrics.CheckoutDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return result, err
}

func (s *CheckoutService) checkout(ctx context.Context, req CheckoutRequest) (*ports.CheckoutResult, error) {
	if req.Wallet == nil || req.Wallet.AccountID() == "" {
		return nil, domain.ErrNotAuthenticated
	}
	accountID := req.Wallet.AccountID()
	tickets := req.TicketsToRedeem
	if tickets < 0 {
		return nil, domain.ErrInvalidTickets
	}

	if replay := s.lookupReceipt(ctx, accountID, req.IdempotencyKey); replay != nil {
		return newCheckoutResult(*replay, true)
	}

	cart := req.Cart.Snapshot(s.policy, tickets)
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	wallet, err := req.Wallet.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if tickets > wallet.Tickets {
		return nil, domain.ErrInsufficientTickets
	}
	if wallet.Balance.LessThan(cart.Total) {
		return nil, domain.ErrInsufficientFunds
	}

	var undo compensations

	if tickets > 0 {
		if err := req.Wallet.DebitTickets(ctx, tickets); err != nil {
			return nil, fmt.Errorf("checkout: redeem tickets: %w", err)
		}
		undo.add("tickets", func(ctx context.Context) error {
			return req.Wallet.CreditTickets(ctx, tickets)
		})
	}

	if cart.Total.IsPositive() {
		if err := req.Wallet.Debit(ctx, cart.Total); err != nil {
			s.unwind(ctx, accountID, &undo, err)
			return nil, fmt.Errorf("checkout: debit: %w", err)
		}
		undo.add("balance", func(ctx context.Context) error {
			return req.Wallet.Credit(ctx, cart.Total)
		})
	}

	purchase := &domain.Purchase{
		AccountID:       accountID,
		Total:           cart.Total,
		Status:          domain.StatusCompleted,
		PaymentMethod:   domain.PaymentWallet,
		RedeemedTickets: tickets,
		CreatedAt:       s.now().UTC(),
	}
	purchaseID, err := s.purchases.InsertPurchase(ctx, purchase)
	if err != nil {
		s.unwind(ctx, accountID, &undo, err)
		return nil, fmt.Errorf("checkout: insert purchase: %w", asGatewayError(err))
	}
	undo.add("purchase", func(ctx context.Context) error {
		return s.purchases.DeletePurchase(ctx, purchaseID)
	})

	if err := s.purchases.InsertPurchaseLines(ctx, purchaseLines(purchaseID, cart)); err != nil {
		s.unwind(ctx, accountID, &undo, err)
		return nil, fmt.Errorf("checkout: insert purchase lines: %w", asGatewayError(err))
	}

	req.Cart.Clear()

	receipt := domain.Receipt{
		PurchaseID:      purchaseID,
		AccountID:       accountID,
		Total:           cart.Total,
		RedeemedTickets: tickets,
		Timestamp:       purchase.CreatedAt,
	}
	s.storeReceipt(ctx, accountID, req.IdempotencyKey, receipt)

	s.log.Info().
		Str("account_id", accountID).
		Str("purchase_id", purchaseID).
		Str("total", cart.Total.StringFixed(2)).
		Int("lines", len(cart.Lines)).
		Int("redeemed_tickets", tickets).
		Msg("checkout completed")

	return newCheckoutResult(receipt, false)
}

func (s *CheckoutService) lookupReceipt(ctx context.Context, accountID, key string) *domain.Receipt {
	if key == "" || s.receipts == nil {
		return nil
	}
	r, err := s.receipts.Get(ctx, accountID, key)
	if err != nil {
		// Proceed without replay protection rather than refusing the sale.
		s.log.Warn().Err(err).Str("account_id", accountID).Msg("idempotency lookup failed")
		return nil
	}
	return r
}

func (s *CheckoutService) storeReceipt(ctx context.Context, accountID, key string, r domain.Receipt) {
	if key == "" || s.receipts == nil {
		return
	}
	if err := s.receipts.Put(ctx, accountID, key, r); err != nil {
		s.log.Warn().Err(err).
			Str("account_id", accountID).
			Str("purchase_id", r.PurchaseID).
			Msg("failed to store checkout receipt")
	}
}

// unwind runs the registered reversals. It uses a context detached from the
// request so a client disconnect cannot leave a half-finished checkout.
func (s *CheckoutService) unwind(ctx context.Context, accountID string, undo *compensations, cause error) {
	if undo.empty() {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for i := len(undo.steps) - 1; i >= 0; i-- {
		step := undo.steps[i]
		if err := step.run(cctx); err != nil {
			metrics.CheckoutCompensationsTotal.WithLabelValues(step.name, "failed").Inc()
			s.log.Error().Err(err).
				AnErr("cause", cause).
				Str("account_id", accountID).
				Str("step", step.name).
				Msg("checkout compensation failed, manual reconciliation required")
			continue
		}
		metrics.CheckoutCompensationsTotal.WithLabelValues(step.name, "ok").Inc()
		s.log.Warn().
			AnErr("cause", cause).
			Str("account_id", accountID).
			Str("step", step.name).
			Msg("checkout step reversed")
	}
}

type compensation struct {
	name string
	run  func(ctx context.Context) error
}

type compensations struct {
	steps []compensation
}

func (c *compensations) add(name string, run func(ctx context.Context) error) {
	c.steps = append(c.steps, compensation{name: name, run: run})
}

func (c *compensations) empty() bool { return len(c.steps) == 0 }

func purchaseLines(purchaseID string, cart CartSnapshot) []domain.PurchaseLine {
	totals := domain.AllocateTotal(cart.Lines, cart.Total)
	lines := make([]domain.PurchaseLine, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = domain.PurchaseLine{
			PurchaseID:  purchaseID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   totals[i],
		}
	}
	return lines
}

func newCheckoutResult(r domain.Receipt, replayed bool) (*ports.CheckoutResult, error) {
	token, err := r.Token()
	if err != nil {
		return nil, fmt.Errorf("checkout: encode receipt: %w", err)
	}
	return &ports.CheckoutResult{Receipt: r, Token: token, Replayed: replayed}, nil
}

func checkoutOutcome(result *ports.CheckoutResult, err error) string {
	switch {
	case err == nil && result.Replayed:
		return "replayed"
	case err == nil:
		return "completed"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInsufficientTickets):
		return "insufficient_tickets"
	default:
		return "failed"
	}
}
