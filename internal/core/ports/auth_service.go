package ports

import (
	"context"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	ClassGroup string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)
}
