package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// AddCardInput carries a card as typed by the customer. Number is reduced to
// its brand and last four digits before storage.
type AddCardInput struct {
	AccountID  string
	HolderName string
	Number     string
	Expiry     string
}

type CardService interface {
	AddCard(ctx context.Context, in AddCardInput) (*domain.Card, error)
	ListCards(ctx context.Context, accountID string) ([]domain.Card, error)
	RemoveCard(ctx context.Context, accountID, cardID string) error
}
