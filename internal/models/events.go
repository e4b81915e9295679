package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы событий проекта
const (
	EventProjectCreated     = "project.created"
	EventApplicantApplied   = "applicant.applied"
	EventCandidateInvited   = "candidate.invited"
	EventFreelancerApproved = "freelancer.approved"
	EventProjectCancelled   = "project.cancelled"
	EventMilestoneAdded     = "milestone.added"
	EventMilestoneFunded    = "milestone.funded"
	EventWorkSubmitted      = "work.submitted"
	EventPaymentReleased    = "payment.released"
	EventDisputeRaised      = "dispute.raised"
	EventDisputeResolved    = "dispute.resolved"
	EventProjectCompleted   = "project.completed"
	EventReputationMinted   = "reputation.minted"
	EventRoleGranted        = "role.granted"
	EventRoleRevoked        = "role.revoked"
)

// ProjectEvent фиксирует успешное изменение состояния проекта.
// Журнал событий append-only, порядок внутри проекта — порядок фиксации.
type ProjectEvent struct {
	ID        uuid.UUID              `json:"id"`
	ProjectID uuid.UUID              `json:"project_id"`
	Type      string                 `json:"type"`
	Actor     uuid.UUID              `json:"actor"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
