package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// ReceiptStore remembers checkout receipts by idempotency key so a retried
// request does not charge twice.
type ReceiptStore interface {
	// Get returns (nil, nil) when the key is unknown.
	Get(ctx context.Context, accountID, key string) (*domain.Receipt, error)
	Put(ctx context.Context, accountID, key string, receipt domain.Receipt) error
}
