package escrow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
)

// CredentialRegistry реестр репутационных токенов, закрепляемый за
// фабрикой при её создании.
type CredentialRegistry interface {
	BindOwner(owner uuid.UUID) error
	Mint(caller, recipient, subject uuid.UUID, role, metadataRef string) (*models.Credential, error)
}

// Factory создаёт проекты и ведёт их авторитетный реестр: append-only
// список плюс множество членства. Только проекты из этого множества
// могут запросить выпуск репутации — фабрика выступает единственным
// владельцем реестра токенов и транслирует запросы дальше.
type Factory struct {
	mu sync.RWMutex

	id       uuid.UUID
	asset    PaymentAsset
	registry CredentialRegistry
	sink     EventSink

	order   []uuid.UUID
	byID    map[uuid.UUID]*Project
	members map[uuid.UUID]bool

	roomIndex map[string][]uuid.UUID
	roomOf    map[uuid.UUID]string
}

func NewFactory(asset PaymentAsset, registry CredentialRegistry, sink EventSink) (*Factory, error) {
	if asset == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не задан расчётный актив")
	}
	if registry == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не задан реестр репутации")
	}

	f := &Factory{
		id:        uuid.New(),
		asset:     asset,
		registry:  registry,
		sink:      sink,
		byID:      make(map[uuid.UUID]*Project),
		members:   make(map[uuid.UUID]bool),
		roomIndex: make(map[string][]uuid.UUID),
		roomOf:    make(map[uuid.UUID]string),
	}
	if err := registry.BindOwner(f.id); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "реестр репутации недоступен фабрике")
	}
	return f, nil
}

func (f *Factory) ID() uuid.UUID {
	return f.id
}

// CreateProject создаёт движок проекта и регистрирует его адрес
// в списке и множестве членства; при наличии токена комнаты проект
// добавляется в индекс комнат.
func (f *Factory) CreateProject(creator uuid.UUID, meta models.ProjectMetadata) (*Project, error) {
	p, err := NewProject(creator, meta, f.asset, f, f.sink)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.order = append(f.order, p.ID())
	f.byID[p.ID()] = p
	f.members[p.ID()] = true
	if token := meta.RoomToken; token != "" {
		f.roomIndex[token] = append(f.roomIndex[token], p.ID())
		f.roomOf[p.ID()] = token
	}
	f.mu.Unlock()

	if f.sink != nil {
		f.sink.Emit(models.ProjectEvent{
			ID:        uuid.New(),
			ProjectID: p.ID(),
			Type:      models.EventProjectCreated,
			Actor:     creator,
			Data: map[string]interface{}{
				"title":      meta.Title,
				"creator":    creator.String(),
				"room_token": meta.RoomToken,
			},
			CreatedAt: time.Now(),
		})
	}
	return p, nil
}

// MintReputationForProject транслирует запрос выпуска токена в реестр.
// Принимается только от проектов, созданных этой фабрикой; содержимое
// запроса передаётся как есть, без дедупликации и проверки.
func (f *Factory) MintReputationForProject(caller, recipient, subject uuid.UUID, role, metadataRef string) error {
	f.mu.RLock()
	member := f.members[caller]
	f.mu.RUnlock()

	if !member {
		return apperror.New(apperror.ErrCodeForbidden, "запрос выпуска репутации не от проекта этой фабрики")
	}

	_, err := f.registry.Mint(f.id, recipient, subject, role, metadataRef)
	return err
}

// ProjectCount возвращает число созданных проектов.
func (f *Factory) ProjectCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}

// ProjectAt возвращает проект по порядковому номеру создания.
func (f *Factory) ProjectAt(index int) (*Project, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if index < 0 || index >= len(f.order) {
		return nil, apperror.ErrProjectNotFound
	}
	return f.byID[f.order[index]], nil
}

// Project возвращает проект по идентификатору.
func (f *Factory) Project(id uuid.UUID) (*Project, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.byID[id]
	if !ok {
		return nil, apperror.ErrProjectNotFound
	}
	return p, nil
}

// IsProject проверяет членство адреса в реестре фабрики.
func (f *Factory) IsProject(id uuid.UUID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.members[id]
}

// Projects возвращает идентификаторы проектов в порядке создания.
func (f *Factory) Projects() []uuid.UUID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]uuid.UUID{}, f.order...)
}

// ProjectsByRoom возвращает проекты, привязанные к токену комнаты.
func (f *Factory) ProjectsByRoom(token string) []uuid.UUID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]uuid.UUID{}, f.roomIndex[token]...)
}

// RoomOfProject возвращает токен комнаты проекта, если он был задан.
func (f *Factory) RoomOfProject(id uuid.UUID) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	token, ok := f.roomOf[id]
	return token, ok
}
