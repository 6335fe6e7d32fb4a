package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

type HistoryService interface {
	// ListHistory returns the account's purchases newest first, each with its lines.
	ListHistory(ctx context.Context, accountID string) ([]domain.PurchaseWithLines, error)
}
