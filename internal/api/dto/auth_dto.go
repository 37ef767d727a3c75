package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LoginRequest is the POST /login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Pin      string `json:"pin"`
}

// RegisterRequest is the POST /users payload.
type RegisterRequest struct {
	Username string      `json:"username"`
	Pin      string      `json:"pin"`
	Role     domain.Role `json:"role"`
}

// AccountResponse is the public account shape. The pin hash never leaves
// the service.
type AccountResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// NewAccountResponse maps an account to its public shape.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Role:      account.Role,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}
