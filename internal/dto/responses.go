package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/models"
)

// PaginatedProjectsResponse represents a paginated project list
type PaginatedProjectsResponse struct {
	Data       []models.ProjectView `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// BalanceResponse represents a ledger balance
type BalanceResponse struct {
	Address uuid.UUID `json:"address"`
	Balance uint64    `json:"balance"`
}

// AllowanceResponse represents an active allowance
type AllowanceResponse struct {
	Owner     uuid.UUID `json:"owner"`
	Spender   uuid.UUID `json:"spender"`
	Allowance uint64    `json:"allowance"`
}

// FaucetResponse represents the result of a faucet credit
type FaucetResponse struct {
	Address  uuid.UUID `json:"address"`
	Credited uint64    `json:"credited"`
	Balance  uint64    `json:"balance"`
}

// EscrowResponse represents a project's custody balance
type EscrowResponse struct {
	ProjectID uuid.UUID `json:"project_id"`
	Escrowed  uint64    `json:"escrowed"`
}

// ArtifactResponse represents a stored artifact reference
type ArtifactResponse struct {
	Ref  string `json:"ref"`
	Size int64  `json:"size"`
}

// PublicUserResponse represents the public part of a user account
type PublicUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPublicUserResponse builds the public view of a user
func NewPublicUserResponse(user *models.User) *PublicUserResponse {
	return &PublicUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
