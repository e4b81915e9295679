package reputation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
)

// Registry хранит непередаваемые репутационные токены. Выпускать их
// вправе только владелец реестра; владелец назначается один раз.
type Registry struct {
	mu          sync.RWMutex
	owner       uuid.UUID
	credentials map[uuid.UUID]*models.Credential
	byRecipient map[uuid.UUID][]uuid.UUID
	bySubject   map[uuid.UUID][]uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{
		credentials: make(map[uuid.UUID]*models.Credential),
		byRecipient: make(map[uuid.UUID][]uuid.UUID),
		bySubject:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// BindOwner закрепляет реестр за владельцем. Повторное закрепление
// запрещено: реестр принадлежит ровно одной фабрике.
func (r *Registry) BindOwner(owner uuid.UUID) error {
	if owner == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес владельца реестра")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner != uuid.Nil {
		return apperror.New(apperror.ErrCodeConflict, "реестр уже закреплён за владельцем")
	}
	r.owner = owner
	return nil
}

// Mint выпускает репутационный токен. Доступен только владельцу реестра.
func (r *Registry) Mint(caller, recipient, subject uuid.UUID, role, metadataRef string) (*models.Credential, error) {
	if recipient == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес получателя токена")
	}
	if subject == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес субъекта токена")
	}
	if metadataRef == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "пустая ссылка на метаданные токена")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller == uuid.Nil || caller != r.owner {
		return nil, apperror.New(apperror.ErrCodeForbidden, "выпуск токенов доступен только владельцу реестра")
	}

	cred := &models.Credential{
		ID:          uuid.New(),
		Recipient:   recipient,
		Subject:     subject,
		Role:        role,
		MetadataRef: metadataRef,
		MintedAt:    time.Now(),
	}
	r.credentials[cred.ID] = cred
	r.byRecipient[recipient] = append(r.byRecipient[recipient], cred.ID)
	r.bySubject[subject] = append(r.bySubject[subject], cred.ID)
	return r.copyOf(cred), nil
}

// Transfer всегда отклоняется: токен навсегда привязан к первому получателю.
func (r *Registry) Transfer(caller, credentialID, to uuid.UUID) error {
	return apperror.New(apperror.ErrCodeNonTransferable, "репутационный токен непередаваем")
}

// CredentialByID возвращает токен по идентификатору.
func (r *Registry) CredentialByID(id uuid.UUID) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.credentials[id]
	if !ok {
		return nil, apperror.ErrCredentialNotFound
	}
	return r.copyOf(cred), nil
}

// CredentialsByRecipient возвращает токены, выпущенные на адрес, в порядке выпуска.
func (r *Registry) CredentialsByRecipient(recipient uuid.UUID) []models.Credential {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byRecipient[recipient])
}

// CredentialsBySubject возвращает токены, выпущенные по поводу субъекта
// (проекта), в порядке выпуска.
func (r *Registry) CredentialsBySubject(subject uuid.UUID) []models.Credential {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.bySubject[subject])
}

func (r *Registry) collect(ids []uuid.UUID) []models.Credential {
	out := make([]models.Credential, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.credentials[id])
	}
	return out
}

func (r *Registry) copyOf(cred *models.Credential) *models.Credential {
	c := *cred
	return &c
}
