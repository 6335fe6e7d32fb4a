package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const receiptTTL = 24 * time.Hour

// ReceiptStore remembers checkout receipts by idempotency key.
// Key format: checkout:<account_id>:<idempotency_key>
type ReceiptStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ReceiptStore = (*ReceiptStore)(nil)

// NewReceiptStore creates a ReceiptStore wrapping the given Redis client.
func NewReceiptStore(client *redis.Client) *ReceiptStore {
	return &ReceiptStore{client: client, ttl: receiptTTL}
}

// Get returns the stored receipt, or (nil, nil) when the key is unknown or
// has expired.
func (s *ReceiptStore) Get(ctx context.Context, accountID, key string) (*domain.Receipt, error) {
	raw, err := s.client.Get(ctx, s.key(accountID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("receipt lookup: %w", err)
	}

	var r domain.Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("receipt decode: %w", err)
	}
	return &r, nil
}

// Put records the receipt (expires after receiptTTL).
func (s *ReceiptStore) Put(ctx context.Context, accountID, key string, receipt domain.Receipt) error {
	raw, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("receipt encode: %w", err)
	}
	return s.client.Set(ctx, s.key(accountID, key), raw, s.ttl).Err()
}

func (s *ReceiptStore) key(accountID, key string) string {
	return fmt.Sprintf("checkout:%s:%s", accountID, key)
}
