package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateProjectRequest represents the request to create an escrow project
type CreateProjectRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Skills      []string `json:"skills"`
	TotalBudget uint64   `json:"total_budget"`
	DeadlineAt  string   `json:"deadline_at" binding:"required"`
	ScopeRef    string   `json:"scope_ref"`
	RoomToken   string   `json:"room_token"`
}

// InviteRequest represents the request to invite a candidate
type InviteRequest struct {
	Candidate string `json:"candidate" binding:"required"`
}

// ApproveFreelancerRequest represents the request to approve a freelancer
type ApproveFreelancerRequest struct {
	Candidate string `json:"candidate" binding:"required"`
}

// AddMilestoneRequest represents the request to append a milestone
type AddMilestoneRequest struct {
	Description string `json:"description" binding:"required"`
	Budget      uint64 `json:"budget"`
	DeadlineAt  string `json:"deadline_at" binding:"required"`
}

// SubmitWorkRequest represents the request to submit milestone work
type SubmitWorkRequest struct {
	WorkRef string `json:"work_ref"`
}

// ReleasePaymentRequest represents the request to approve a milestone and
// release its payment
type ReleasePaymentRequest struct {
	CreatorCredentialRef    string `json:"creator_credential_ref"`
	FreelancerCredentialRef string `json:"freelancer_credential_ref"`
}

// DisputeRequest represents the request to raise a dispute
type DisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest represents the arbiter's decision on a dispute.
// PayFreelancer is a pointer so an explicit false is distinguishable
// from a missing field.
type ResolveDisputeRequest struct {
	PayFreelancer *bool `json:"pay_freelancer" binding:"required"`
}

// DelegateRequest represents granting or revoking a role delegation
type DelegateRequest struct {
	Role  string `json:"role" binding:"required"`
	Agent string `json:"agent" binding:"required"`
}

// LedgerApproveRequest represents setting an allowance. A zero amount
// revokes the allowance, so the field carries no required tag.
type LedgerApproveRequest struct {
	Spender string `json:"spender" binding:"required"`
	Amount  uint64 `json:"amount"`
}

// LedgerTransferRequest represents a direct transfer
type LedgerTransferRequest struct {
	To     string `json:"to" binding:"required"`
	Amount uint64 `json:"amount"`
}

// ParseDeadline converts the RFC3339 deadline string to time.Time
func (r *CreateProjectRequest) ParseDeadline() (time.Time, error) {
	return time.Parse(time.RFC3339, r.DeadlineAt)
}

// ParseDeadline converts the RFC3339 deadline string to time.Time
func (r *AddMilestoneRequest) ParseDeadline() (time.Time, error) {
	return time.Parse(time.RFC3339, r.DeadlineAt)
}

// ParseCandidate converts the candidate string to uuid.UUID
func (r *InviteRequest) ParseCandidate() (uuid.UUID, error) {
	return uuid.Parse(r.Candidate)
}

// ParseCandidate converts the candidate string to uuid.UUID
func (r *ApproveFreelancerRequest) ParseCandidate() (uuid.UUID, error) {
	return uuid.Parse(r.Candidate)
}

// ParseAgent converts the agent string to uuid.UUID
func (r *DelegateRequest) ParseAgent() (uuid.UUID, error) {
	return uuid.Parse(r.Agent)
}

// ParseSpender converts the spender string to uuid.UUID
func (r *LedgerApproveRequest) ParseSpender() (uuid.UUID, error) {
	return uuid.Parse(r.Spender)
}

// ParseTo converts the recipient string to uuid.UUID
func (r *LedgerTransferRequest) ParseTo() (uuid.UUID, error) {
	return uuid.Parse(r.To)
}
