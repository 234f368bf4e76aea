package ports

import (
	"context"

	"github.com/fidcar/user-service/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts user, assigns its ID and timestamps, and returns the stored copy.
	// A duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update overwrites every mutable column of an existing user.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindPage returns one page ordered by creation time and the total number of users.
	// page is 1-based.
	FindPage(ctx context.Context, page, pageSize int) ([]*domain.User, int64, error)
}
