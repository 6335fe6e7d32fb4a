package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Count(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, products []domain.Product) error
}
