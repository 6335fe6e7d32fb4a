package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const historyFetchConcurrency = 8

// HistoryService lists past purchases together with their lines.
type HistoryService struct {
	repo ports.PurchaseRepository
}

var _ ports.HistoryService = (*HistoryService)(nil)

func NewHistoryService(repo ports.PurchaseRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// ListHistory returns the account's purchases newest first. Lines are
// fetched concurrently; any failure fails the whole listing.
func (s *HistoryService) ListHistory(ctx context.Context, accountID string) ([]domain.PurchaseWithLines, error) {
	if accountID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	purchases, err := s.repo.ListPurchases(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	out := make([]domain.PurchaseWithLines, len(purchases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyFetchConcurrency)
	for i, p := range purchases {
		out[i].Purchase = p
		g.Go(func() error {
			lines, err := s.repo.ListPurchaseLines(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("list lines of purchase %s: %w", p.ID, err)
			}
			if lines == nil {
				lines = []domain.PurchaseLine{}
			}
			out[i].Lines = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
