package models

// Статусы проекта
type ProjectStatus string

const (
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusOpen, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusCancelled
}

func (s ProjectStatus) CanTransitionTo(newStatus ProjectStatus) bool {
	transitions := map[ProjectStatus][]ProjectStatus{
		ProjectStatusOpen:       {ProjectStatusInProgress, ProjectStatusCancelled},
		ProjectStatusInProgress: {ProjectStatusCompleted, ProjectStatusCancelled},
		ProjectStatusCompleted:  {},
		ProjectStatusCancelled:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// Статусы вехи
type MilestoneStatus string

const (
	MilestoneStatusDefined   MilestoneStatus = "defined"
	MilestoneStatusFunded    MilestoneStatus = "funded"
	MilestoneStatusSubmitted MilestoneStatus = "submitted"
	MilestoneStatusApproved  MilestoneStatus = "approved"
	MilestoneStatusDisputed  MilestoneStatus = "disputed"
)

func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestoneStatusDefined, MilestoneStatusFunded, MilestoneStatusSubmitted,
		MilestoneStatusApproved, MilestoneStatusDisputed:
		return true
	}
	return false
}

// CanTransitionTo допускает только прямое движение вехи; единственный
// возврат — Disputed → Approved решением арбитра.
func (s MilestoneStatus) CanTransitionTo(newStatus MilestoneStatus) bool {
	transitions := map[MilestoneStatus][]MilestoneStatus{
		MilestoneStatusDefined:   {MilestoneStatusFunded},
		MilestoneStatusFunded:    {MilestoneStatusSubmitted},
		MilestoneStatusSubmitted: {MilestoneStatusApproved, MilestoneStatusDisputed},
		MilestoneStatusDisputed:  {MilestoneStatusApproved},
		MilestoneStatusApproved:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// Роли участников проекта
type DelegationRole string

const (
	RoleCreator    DelegationRole = "creator"
	RoleFreelancer DelegationRole = "freelancer"
	RoleArbiter    DelegationRole = "arbiter"
)

func (r DelegationRole) IsValid() bool {
	switch r {
	case RoleCreator, RoleFreelancer, RoleArbiter:
		return true
	}
	return false
}
