package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/escrow"
	"github.com/CollabraChain/escrow-backend/internal/events"
	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
	"github.com/CollabraChain/escrow-backend/internal/validation"
)

// ProjectService — прикладной фасад над фабрикой проектов эскроу.
// Проверяет входные данные сервисного уровня и транслирует вызовы в
// движок; правила самого протокола живут в пакете escrow.
type ProjectService struct {
	factory *escrow.Factory
	log     *events.Log
}

// CreateProjectInput содержит метаданные нового проекта.
type CreateProjectInput struct {
	Title       string
	Description string
	Category    string
	Skills      []string
	TotalBudget uint64
	Deadline    time.Time
	ScopeRef    string
	RoomToken   string
}

// MilestoneInput содержит данные новой вехи.
type MilestoneInput struct {
	Description string
	Budget      uint64
	Deadline    time.Time
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(factory *escrow.Factory, log *events.Log) *ProjectService {
	return &ProjectService{
		factory: factory,
		log:     log,
	}
}

// Create проверяет метаданные и создаёт проект через фабрику.
func (s *ProjectService) Create(ctx context.Context, creator uuid.UUID, in CreateProjectInput) (models.ProjectView, error) {
	if err := validation.ValidateProjectTitle(in.Title); err != nil {
		return models.ProjectView{}, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateProjectDescription(in.Description); err != nil {
		return models.ProjectView{}, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return models.ProjectView{}, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateRoomToken(in.RoomToken); err != nil {
		return models.ProjectView{}, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateContentRef("ссылка на описание объёма работ", in.ScopeRef); err != nil {
		return models.ProjectView{}, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	project, err := s.factory.CreateProject(creator, models.ProjectMetadata{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Skills:      in.Skills,
		TotalBudget: in.TotalBudget,
		Deadline:    in.Deadline,
		ScopeRef:    in.ScopeRef,
		RoomToken:   in.RoomToken,
	})
	if err != nil {
		return models.ProjectView{}, err
	}

	return project.View(), nil
}

// List возвращает срезы проектов в порядке создания.
func (s *ProjectService) List(ctx context.Context, limit, offset int) ([]models.ProjectView, int) {
	ids := s.factory.Projects()
	total := len(ids)

	if offset >= total {
		return []models.ProjectView{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	out := make([]models.ProjectView, 0, end-offset)
	for _, id := range ids[offset:end] {
		if p, err := s.factory.Project(id); err == nil {
			out = append(out, p.View())
		}
	}
	return out, total
}

// Get возвращает полный срез состояния проекта.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (models.ProjectView, error) {
	p, err := s.factory.Project(id)
	if err != nil {
		return models.ProjectView{}, err
	}
	return p.View(), nil
}

// Apply регистрирует отклик вызывающего на проект.
func (s *ProjectService) Apply(ctx context.Context, id, caller uuid.UUID) error {
	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.Apply(caller)
}

// Applicants возвращает откликнувшихся в порядке подачи.
func (s *ProjectService) Applicants(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	p, err := s.factory.Project(id)
	if err != nil {
		return nil, err
	}
	return p.View().Applicants, nil
}

// Invite отправляет кандидату приглашение на проект.
func (s *ProjectService) Invite(ctx context.Context, id, caller, candidate uuid.UUID) error {
	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.Invite(caller, candidate)
}

// ApproveFreelancer назначает исполнителя и запускает проект.
func (s *ProjectService) ApproveFreelancer(ctx context.Context, id, caller, candidate uuid.UUID) error {
	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.ApproveFreelancer(caller, candidate)
}

// Cancel отменяет проект.
func (s *ProjectService) Cancel(ctx context.Context, id, caller uuid.UUID) error {
	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.Cancel(caller)
}

// AddMilestone добавляет веху в проект.
func (s *ProjectService) AddMilestone(ctx context.Context, id, caller uuid.UUID, in MilestoneInput) error {
	if err := validation.ValidateMilestoneDescription(in.Description); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.AddMilestone(caller, in.Description, in.Budget, in.Deadline)
}

// Milestones возвращает вехи проекта по порядку.
func (s *ProjectService) Milestones(ctx context.Context, id uuid.UUID) ([]models.Milestone, error) {
	p, err := s.factory.Project(id)
	if err != nil {
		return nil, err
	}
	return p.View().Milestones, nil
}

// FundMilestone переводит бюджет вехи в кастодию проекта.
func (s *ProjectService) FundMilestone(ctx context.Context, id, caller uuid.UUID, index int) error {
	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.FundMilestone(caller, index)
}

// SubmitWork фиксирует результат работы по вехе.
func (s *ProjectService) SubmitWork(ctx context.Context, id, caller uuid.UUID, index int, workRef string) error {
	if err := validation.ValidateContentRef("ссылка на результат работы", workRef); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.SubmitWork(caller, index, workRef)
}

// ReleasePayment принимает веху и выплачивает бюджет исполнителю.
func (s *ProjectService) ReleasePayment(ctx context.Context, id, caller uuid.UUID, index int, creatorRef, freelancerRef string) error {
	if err := validation.ValidateContentRef("ссылка метаданных заказчика", creatorRef); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateContentRef("ссылка метаданных исполнителя", freelancerRef); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.ReleasePayment(caller, index, creatorRef, freelancerRef)
}

// RaiseDispute открывает спор по сданной вехе.
func (s *ProjectService) RaiseDispute(ctx context.Context, id, caller uuid.UUID, index int, reason string) error {
	if err := validation.ValidateDisputeReason(reason); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.RaiseDispute(caller, index, reason)
}

// ResolveDispute закрывает спор решением арбитра.
func (s *ProjectService) ResolveDispute(ctx context.Context, id, caller uuid.UUID, index int, payFreelancer bool) error {
	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.ResolveDispute(caller, index, payFreelancer)
}

// GrantRole делегирует роль агенту.
func (s *ProjectService) GrantRole(ctx context.Context, id, caller uuid.UUID, role models.DelegationRole, agent uuid.UUID) error {
	if !role.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "неизвестная роль делегирования")
	}

	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.GrantRole(caller, role, agent)
}

// RevokeRole отзывает делегирование роли.
func (s *ProjectService) RevokeRole(ctx context.Context, id, caller uuid.UUID, role models.DelegationRole, agent uuid.UUID) error {
	if !role.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "неизвестная роль делегирования")
	}

	p, err := s.factory.Project(id)
	if err != nil {
		return err
	}
	return p.RevokeRole(caller, role, agent)
}

// Delegations возвращает текущие делегирования ролей проекта.
func (s *ProjectService) Delegations(ctx context.Context, id uuid.UUID) (models.DelegationView, error) {
	p, err := s.factory.Project(id)
	if err != nil {
		return models.DelegationView{}, err
	}
	return p.Delegations(), nil
}

// Events возвращает журнал событий проекта.
func (s *ProjectService) Events(ctx context.Context, id uuid.UUID) ([]models.ProjectEvent, error) {
	if !s.factory.IsProject(id) {
		return nil, apperror.ErrProjectNotFound
	}
	return s.log.ByProject(id), nil
}

// EscrowBalance возвращает сумму в кастодии проекта.
func (s *ProjectService) EscrowBalance(ctx context.Context, id uuid.UUID) (uint64, error) {
	p, err := s.factory.Project(id)
	if err != nil {
		return 0, err
	}
	return p.EscrowBalance(), nil
}

// ProjectsByRoom возвращает проекты комнаты в порядке создания.
func (s *ProjectService) ProjectsByRoom(ctx context.Context, token string) ([]models.ProjectView, error) {
	if err := validation.ValidateRoomToken(token); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	ids := s.factory.ProjectsByRoom(token)
	out := make([]models.ProjectView, 0, len(ids))
	for _, id := range ids {
		if p, err := s.factory.Project(id); err == nil {
			out = append(out, p.View())
		}
	}
	return out, nil
}
