package domain

import "github.com/shopspring/decimal"

// CartLine is one selected product in a session cart. Lines are never
// persisted; LineID is unique within the owning session only.
type CartLine struct {
	LineID      string          `json:"line_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Gross returns unit price times quantity.
func (l CartLine) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
