package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is handed to the client after checkout and encoded into a scannable
// code by the UI. It carries no signature.
type Receipt struct {
	PurchaseID      string          `json:"purchaseId"`
	AccountID       string          `json:"accountId"`
	Total           decimal.Decimal `json:"total"`
	RedeemedTickets int             `json:"redeemedTickets"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Token serializes the receipt as the JSON text a scanner reads back.
func (r Receipt) Token() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseReceipt decodes a scanned token.
func ParseReceipt(token string) (Receipt, error) {
	var r Receipt
	err := json.Unmarshal([]byte(token), &r)
	return r, err
}
