package ports

import (
	"context"

	"github.com/fidcar/user-service/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
