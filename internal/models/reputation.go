package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли, под которыми выпускаются репутационные токены
const (
	CredentialRoleCreator    = "Creator"
	CredentialRoleFreelancer = "Freelancer"
)

// Credential непередаваемый репутационный токен, выпущенный по завершении
// проекта. Recipient зафиксирован навсегда: передача другому владельцу
// невозможна.
type Credential struct {
	ID          uuid.UUID `json:"id"`
	Recipient   uuid.UUID `json:"recipient"`
	Subject     uuid.UUID `json:"subject"`
	Role        string    `json:"role"`
	MetadataRef string    `json:"metadata_ref"`
	MintedAt    time.Time `json:"minted_at"`
}
