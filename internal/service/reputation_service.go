package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/reputation"
)

// ReputationService отдаёт репутационные токены на чтение. Выпуск
// токенов идёт исключительно через фабрику при завершении проекта.
type ReputationService struct {
	registry *reputation.Registry
}

// NewReputationService создаёт сервис репутации.
func NewReputationService(registry *reputation.Registry) *ReputationService {
	return &ReputationService{registry: registry}
}

// CredentialByID возвращает токен по идентификатору.
func (s *ReputationService) CredentialByID(ctx context.Context, id uuid.UUID) (*models.Credential, error) {
	return s.registry.CredentialByID(id)
}

// CredentialsOfUser возвращает токены, выпущенные пользователю.
func (s *ReputationService) CredentialsOfUser(ctx context.Context, userID uuid.UUID) []models.Credential {
	return s.registry.CredentialsByRecipient(userID)
}

// CredentialsBySubject возвращает токены, выпущенные по проекту.
func (s *ReputationService) CredentialsBySubject(ctx context.Context, projectID uuid.UUID) []models.Credential {
	return s.registry.CredentialsBySubject(projectID)
}
