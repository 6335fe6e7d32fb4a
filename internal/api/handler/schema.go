package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Name       string `json:"name"        validate:"required"`
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required,min=6"`
	ClassGroup string `json:"class_group"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token   string          `json:"token,omitempty"`
	Account *domain.Account `json:"account,omitempty"`
}

// --- Wallet ---

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"20.00"`
}

type walletResponse struct {
	AccountID     string     `json:"account_id"`
	Balance       string     `json:"balance" example:"110.00"`
	Tickets       int        `json:"tickets"`
	LastAccrualAt *time.Time `json:"last_accrual_at,omitempty"`
	Version       int64      `json:"version"`
}

func toWalletResponse(w *domain.Wallet) walletResponse {
	resp := walletResponse{
		AccountID: w.AccountID,
		Balance:   w.Balance.StringFixed(2),
		Tickets:   w.Tickets,
		Version:   w.Version,
	}
	if !w.LastAccrualAt.IsZero() {
		t := w.LastAccrualAt
		resp.LastAccrualAt = &t
	}
	return resp
}

// --- Cart ---

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	// Quantity defaults to 1 when omitted.
	Quantity int `json:"quantity" validate:"min=0"`
}

type cartLineResponse struct {
	LineID      string `json:"line_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price" example:"4.50"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"line_total" example:"9.00"`
}

type cartResponse struct {
	Lines           []cartLineResponse `json:"lines"`
	Subtotal        string             `json:"subtotal" example:"100.00"`
	TicketsRedeemed int                `json:"tickets_redeemed"`
	Total           string             `json:"total" example:"90.00"`
}

func toCartLineResponse(l domain.CartLine) cartLineResponse {
	return cartLineResponse{
		LineID:      l.LineID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		UnitPrice:   l.UnitPrice.StringFixed(2),
		Quantity:    l.Quantity,
		LineTotal:   l.Gross().StringFixed(2),
	}
}

func toCartResponse(v *ports.CartView) cartResponse {
	lines := make([]cartLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = toCartLineResponse(l)
	}
	return cartResponse{
		Lines:           lines,
		Subtotal:        v.Subtotal.StringFixed(2),
		TicketsRedeemed: v.TicketsRedeemed,
		Total:           v.Total.StringFixed(2),
	}
}

// --- Checkout ---

type checkoutRequest struct {
	TicketsToRedeem int `json:"tickets_to_redeem" validate:"min=0"`
}

type checkoutResponse struct {
	Receipt  domain.Receipt `json:"receipt"`
	Token    string         `json:"token"`
	Replayed bool           `json:"replayed"`
}

// --- Purchases ---

type purchaseLineResponse struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type purchaseResponse struct {
	ID              string                 `json:"id"`
	Total           string                 `json:"total"`
	Status          string                 `json:"status"`
	PaymentMethod   string                 `json:"payment_method"`
	RedeemedTickets int                    `json:"redeemed_tickets"`
	CreatedAt       time.Time              `json:"created_at"`
	Lines           []purchaseLineResponse `json:"lines"`
}

func toPurchaseResponse(p domain.PurchaseWithLines) purchaseResponse {
	lines := make([]purchaseLineResponse, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = purchaseLineResponse{
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			LineTotal:   l.LineTotal.StringFixed(2),
		}
	}
	return purchaseResponse{
		ID:              p.ID,
		Total:           p.Total.StringFixed(2),
		Status:          string(p.Status),
		PaymentMethod:   p.PaymentMethod,
		RedeemedTickets: p.RedeemedTickets,
		CreatedAt:       p.CreatedAt,
		Lines:           lines,
	}
}

// --- Catalog ---

type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       string `json:"price" example:"4.50"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
	}
}

// --- Cards ---

type addCardRequest struct {
	HolderName string `json:"holder_name" validate:"required"`
	Number     string `json:"number"      validate:"required"`
	Expiry     string `json:"expiry"      validate:"required" example:"09/29"`
}

// --- Admin ---

type updateAccountRequest struct {
	Name       string `json:"name"        validate:"required"`
	Email      string `json:"email"       validate:"required,email"`
	Active     *bool  `json:"active"      validate:"required"`
	ClassGroup string `json:"class_group" validate:"required"`
}

type setWalletRequest struct {
	Balance *decimal.Decimal `json:"balance,omitempty" swaggertype:"string" example:"50.00"`
	Tickets *int             `json:"tickets,omitempty"`
}
