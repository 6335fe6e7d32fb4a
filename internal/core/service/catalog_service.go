package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// CatalogService serves the product catalog.
type CatalogService struct {
	repo ports.ProductRepository
	log  zerolog.Logger
}

var _ ports.CatalogService = (*CatalogService)(nil)

func NewCatalogService(repo ports.ProductRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, log: log}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// SeedIfEmpty inserts products only when the catalog has none. It reports
// whether anything was inserted.
func (s *CatalogService) SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if n > 0 || len(products) == 0 {
		return false, nil
	}

	for i := range products {
		if products[i].Position == 0 {
			products[i].Position = i + 1
		}
	}
	if err := s.repo.InsertMany(ctx, products); err != nil {
		return false, fmt.Errorf("seed products: %w", err)
	}

	s.log.Info().Int("products", len(products)).Msg("catalog seeded")
	return true, nil
}
