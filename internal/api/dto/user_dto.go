package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRequest payload. Identifier is a username or an email.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
}

// CreateUserRequest payload. Empty email and temp_password take defaults.
type CreateUserRequest struct {
	Username     string      `json:"username" validate:"required,max=64"`
	Email        string      `json:"email" validate:"omitempty,email"`
	Name         string      `json:"name" validate:"max=120"`
	Role         domain.Role `json:"role" validate:"omitempty,oneof=Requester Agent Supervisor Admin"`
	TempPassword string      `json:"temp_password" validate:"omitempty,min=6,max=128"`
}

// UpdateUserRequest is a partial update.
type UpdateUserRequest struct {
	Username *string      `json:"username" validate:"omitempty,max=64"`
	Email    *string      `json:"email" validate:"omitempty,email"`
	Name     *string      `json:"name" validate:"omitempty,max=120"`
	Role     *domain.Role `json:"role" validate:"omitempty,oneof=Requester Agent Supervisor Admin"`
	Active   *bool        `json:"active"`
}

// SetActiveRequest payload.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SetPasswordRequest payload.
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// UserResponse hides the password hash.
type UserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
