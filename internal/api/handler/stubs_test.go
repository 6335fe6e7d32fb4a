package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Test harness
// ---------------------------------------------------------------------------

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	return e
}

type request struct {
	method    string
	target    string
	body      string
	accountID string
	params    map[string]string
	header    map[string]string
}

// serve runs h the way the router would, errors included, and returns the
// recorded response.
func serve(t *testing.T, h echo.HandlerFunc, r request) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()

	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.target, body)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if r.accountID != "" {
		c.Set("account_id", r.accountID)
	}
	if len(r.params) > 0 {
		var names, values []string
		for name, value := range r.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Account, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, email, password)
}

type stubShopService struct {
	walletFn     func(ctx context.Context, accountID string) (*domain.Wallet, error)
	topUpFn      func(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Wallet, error)
	cartFn       func(ctx context.Context, accountID string, tickets int) (*ports.CartView, error)
	addFn        func(ctx context.Context, accountID, productID string, qty int) (*domain.CartLine, error)
	removeFn     func(ctx context.Context, accountID, lineID string) error
	clearFn      func(ctx context.Context, accountID string) error
	checkoutFn   func(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error)
	endedSession string
}

func (s *stubShopService) Wallet(ctx context.Context, accountID string) (*domain.Wallet, error) {
	return s.walletFn(ctx, accountID)
}

func (s *stubShopService) TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Wallet, error) {
	return s.topUpFn(ctx, accountID, amount)
}

func (s *stubShopService) Cart(ctx context.Context, accountID string, tickets int) (*ports.CartView, error) {
	return s.cartFn(ctx, accountID, tickets)
}

func (s *stubShopService) AddToCart(ctx context.Context, accountID, productID string, qty int) (*domain.CartLine, error) {
	return s.addFn(ctx, accountID, productID, qty)
}

func (s *stubShopService) RemoveFromCart(ctx context.Context, accountID, lineID string) error {
	return s.removeFn(ctx, accountID, lineID)
}

func (s *stubShopService) ClearCart(ctx context.Context, accountID string) error {
	return s.clearFn(ctx, accountID)
}

func (s *stubShopService) Checkout(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
	return s.checkoutFn(ctx, in)
}

func (s *stubShopService) EndSession(accountID string) {
	s.endedSession = accountID
}

type stubAccountService struct {
	listFn      func(ctx context.Context) ([]domain.Account, error)
	updateFn    func(ctx context.Context, in ports.UpdateAccountInput) (*domain.Account, error)
	setWalletFn func(ctx context.Context, in ports.SetWalletInput) (*domain.Wallet, error)
}

func (s *stubAccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.listFn(ctx)
}

func (s *stubAccountService) UpdateAccount(ctx context.Context, in ports.UpdateAccountInput) (*domain.Account, error) {
	return s.updateFn(ctx, in)
}

func (s *stubAccountService) SetWallet(ctx context.Context, in ports.SetWalletInput) (*domain.Wallet, error) {
	return s.setWalletFn(ctx, in)
}

type stubCatalogService struct {
	products []domain.Product
	err      error
}

func (s *stubCatalogService) ListProducts(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalogService) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (s *stubCatalogService) SeedIfEmpty(context.Context, []domain.Product) (bool, error) {
	return false, nil
}

type stubHistoryService struct {
	fn func(ctx context.Context, accountID string) ([]domain.PurchaseWithLines, error)
}

func (s *stubHistoryService) ListHistory(ctx context.Context, accountID string) ([]domain.PurchaseWithLines, error) {
	return s.fn(ctx, accountID)
}

type stubCardService struct {
	addFn    func(ctx context.Context, in ports.AddCardInput) (*domain.Card, error)
	listFn   func(ctx context.Context, accountID string) ([]domain.Card, error)
	removeFn func(ctx context.Context, accountID, cardID string) error
}

func (s *stubCardService) AddCard(ctx context.Context, in ports.AddCardInput) (*domain.Card, error) {
	return s.addFn(ctx, in)
}

func (s *stubCardService) ListCards(ctx context.Context, accountID string) ([]domain.Card, error) {
	return s.listFn(ctx, accountID)
}

func (s *stubCardService) RemoveCard(ctx context.Context, accountID, cardID string) error {
	return s.removeFn(ctx, accountID, cardID)
}
