package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// AccountRepository defines persistence for canteen accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// List returns every account ordered by class group, then id.
	List(ctx context.Context) ([]domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
}
