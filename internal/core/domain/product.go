package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry sold at the canteen.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Position    int             `json:"position"`
}
