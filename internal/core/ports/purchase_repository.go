package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// PurchaseRepository persists checkout results.
type PurchaseRepository interface {
	// InsertPurchase stores p and returns the generated purchase id.
	InsertPurchase(ctx context.Context, p *domain.Purchase) (string, error)
	// InsertPurchaseLines stores all lines in one batch.
	InsertPurchaseLines(ctx context.Context, lines []domain.PurchaseLine) error
	// DeletePurchase removes a purchase and its lines. Used only to undo a
	// checkout that failed part-way.
	DeletePurchase(ctx context.Context, purchaseID string) error
	// ListPurchases returns the account's purchases, newest first.
	ListPurchases(ctx context.Context, accountID string) ([]domain.Purchase, error)
	ListPurchaseLines(ctx context.Context, purchaseID string) ([]domain.PurchaseLine, error)
}
