package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectMetadata содержит описательные поля проекта. Хранится как есть:
// пустые строки и пустые списки допустимы.
type ProjectMetadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Skills      []string  `json:"skills"`
	TotalBudget uint64    `json:"total_budget"`
	Deadline    time.Time `json:"deadline"`
	ScopeRef    string    `json:"scope_ref"`
	RoomToken   string    `json:"room_token"`
}

// Milestone описывает веху проекта с собственным бюджетом и жизненным циклом.
type Milestone struct {
	Description string          `json:"description"`
	Budget      uint64          `json:"budget"`
	Deadline    time.Time       `json:"deadline"`
	WorkRef     string          `json:"work_ref"`
	Status      MilestoneStatus `json:"status"`
}

// ProjectView снимок состояния проекта для внешних потребителей.
type ProjectView struct {
	ID          uuid.UUID       `json:"id"`
	Creator     uuid.UUID       `json:"creator"`
	Freelancer  uuid.UUID       `json:"freelancer"`
	Arbiter     uuid.UUID       `json:"arbiter"`
	Status      ProjectStatus   `json:"status"`
	Metadata    ProjectMetadata `json:"metadata"`
	Applicants  []uuid.UUID     `json:"applicants"`
	Milestones  []Milestone     `json:"milestones"`
	Escrowed    uint64          `json:"escrowed"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// DelegationView перечисляет агентов, действующих от имени ролей проекта.
type DelegationView struct {
	Creator    []uuid.UUID `json:"creator"`
	Freelancer []uuid.UUID `json:"freelancer"`
	Arbiter    []uuid.UUID `json:"arbiter"`
}
