package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

type CatalogService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// SeedIfEmpty inserts products only when the catalog has none. It reports
	// whether anything was inserted.
	SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error)
}
