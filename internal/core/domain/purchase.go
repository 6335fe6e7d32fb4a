package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus is the lifecycle state of a recorded purchase.
type PurchaseStatus string

const StatusCompleted PurchaseStatus = "completed"

// PaymentWallet tags purchases paid from the account wallet.
const PaymentWallet = "wallet"

// Purchase is the immutable record of a completed checkout.
type Purchase struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Total           decimal.Decimal `json:"total"`
	Status          PurchaseStatus  `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	RedeemedTickets int             `json:"redeemed_tickets"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PurchaseLine snapshots one cart line at checkout time.
type PurchaseLine struct {
	PurchaseID  string          `json:"purchase_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseWithLines is a purchase joined with its lines for history views.
type PurchaseWithLines struct {
	Purchase
	Lines []PurchaseLine `json:"lines"`
}
