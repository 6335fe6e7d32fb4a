package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

type CardRepository interface {
	Insert(ctx context.Context, card *domain.Card) (*domain.Card, error)
	// ListByAccount returns the account's cards, newest first.
	ListByAccount(ctx context.Context, accountID string) ([]domain.Card, error)
	// Delete removes the card only if it belongs to accountID.
	Delete(ctx context.Context, accountID, cardID string) error
}
