package handler

import (
	"github.com/fidcar/user-service/internal/core/domain"
	"github.com/fidcar/user-service/internal/core/ports"
)

type createUserRequest struct {
	Email     string   `json:"email"      validate:"required,email,max=180"`
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name"  validate:"required,max=100"`
	Password  string   `json:"password"   validate:"required"`
	Roles     []string `json:"roles,omitempty"`
}

func (r createUserRequest) toInput() ports.CreateUserInput {
	return ports.CreateUserInput{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
		Roles:     r.Roles,
	}
}

type updateUserRequest struct {
	Email     *string  `json:"email,omitempty"      validate:"omitempty,email,max=180"`
	FirstName *string  `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string  `json:"last_name,omitempty"  validate:"omitempty,max=100"`
	Roles     []string `json:"roles,omitempty"`
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Roles:     r.Roles,
	}
}

type changePasswordRequest struct {
	OldPassword string  `json:"old_password" validate:"required"`
	NewPassword string  `json:"new_password"`
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name,omitempty"  validate:"omitempty,max=100"`
}

func (r changePasswordRequest) toInput() ports.ChangePasswordInput {
	return ports.ChangePasswordInput{
		OldPassword: r.OldPassword,
		NewPassword: r.NewPassword,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
	}
}

type listUsersResponse struct {
	Items      []*domain.User `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

type changePasswordResponse struct {
	User            *domain.User `json:"user"`
	PasswordChanged bool         `json:"password_changed"`
	Messages        []string     `json:"messages"`
}

// warningResponse is returned when the request is understood but rejected in
// a way the caller should show as a warning and retry, keeping the session.
type warningResponse struct {
	Warning string `json:"warning"`
}
