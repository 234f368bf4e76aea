package ports

import (
	"context"

	"github.com/fidcar/user-service/internal/core/domain"
)

// CreateUserInput carries the admin-supplied fields for a new account.
// Roles is accepted so callers can pass whatever the client sent; it is ignored.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Roles     []string
}

// UpdateUserInput is a partial update. Nil fields are left untouched.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Roles     []string // nil = unchanged
}

// ChangePasswordInput is the self-service form. NewPassword may be empty, in
// which case only the optional name fields are applied.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
	FirstName   *string
	LastName    *string
}

// ChangePasswordResult reports what the self-service call changed.
type ChangePasswordResult struct {
	User            *domain.User
	PasswordChanged bool
}

// ListUsersResult is one page of users.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// UserService defines the user-management use cases.
type UserService interface {
	List(ctx context.Context, page int) (*ListUsersResult, error)
	Get(ctx context.Context, requester domain.Requester, id string) (*domain.User, error)
	Create(ctx context.Context, requester domain.Requester, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, requester domain.Requester, id string, input UpdateUserInput) (*domain.User, error)
	ChangeOwnPassword(ctx context.Context, requester domain.Requester, input ChangePasswordInput) (*ChangePasswordResult, error)
	Delete(ctx context.Context, requester domain.Requester, id string) error
}
