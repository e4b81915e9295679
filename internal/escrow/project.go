package escrow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
)

// PaymentAsset расчётный актив. Движок только вызывает его и никогда
// не ведёт балансы сам. Отправитель/spender передаются явно.
type PaymentAsset interface {
	Allowance(owner, spender uuid.UUID) uint64
	Transfer(from, to uuid.UUID, amount uint64) bool
	TransferFrom(spender, from, to uuid.UUID, amount uint64) bool
}

// ReputationMinter канал запроса выпуска репутации. Единственный
// внешний вызов проекта помимо расчётного актива.
type ReputationMinter interface {
	MintReputationForProject(caller, recipient, subject uuid.UUID, role, metadataRef string) error
}

// EventSink принимает события успешных изменений состояния.
// Реализация не должна обращаться обратно к проекту.
type EventSink interface {
	Emit(event models.ProjectEvent)
}

// Project движок одного контракта: машина состояний вех, найм,
// финансирование, споры и выпуск репутации при завершении.
//
// Все изменяющие операции проходят через неповторновходимый guard:
// на время внешнего вызова актива мьютекс отпускается, но флаг
// остаётся взведённым, и любой повторный изменяющий вызов получает
// REENTRANT_CALL вместо взаимоблокировки.
type Project struct {
	mu     sync.Mutex
	locked bool

	id         uuid.UUID
	creator    uuid.UUID
	freelancer uuid.UUID
	arbiter    uuid.UUID

	asset  PaymentAsset
	minter ReputationMinter
	sink   EventSink

	status models.ProjectStatus
	meta   models.ProjectMetadata

	applied    map[uuid.UUID]bool
	applicants []uuid.UUID

	milestones []models.Milestone
	escrowed   uint64

	agents      map[uuid.UUID]map[uuid.UUID]bool
	delegatedBy map[uuid.UUID]uuid.UUID

	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time
}

func NewProject(creator uuid.UUID, meta models.ProjectMetadata, asset PaymentAsset, minter ReputationMinter, sink EventSink) (*Project, error) {
	if creator == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес создателя проекта")
	}
	if asset == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не задан расчётный актив")
	}
	if minter == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не задан канал выпуска репутации")
	}
	if !meta.Deadline.After(time.Now()) {
		return nil, apperror.New(apperror.ErrCodeInvalidDeadline, "дедлайн проекта должен быть строго в будущем")
	}

	return &Project{
		id:          uuid.New(),
		creator:     creator,
		arbiter:     creator,
		asset:       asset,
		minter:      minter,
		sink:        sink,
		status:      models.ProjectStatusOpen,
		meta:        meta,
		applied:     make(map[uuid.UUID]bool),
		agents:      make(map[uuid.UUID]map[uuid.UUID]bool),
		delegatedBy: make(map[uuid.UUID]uuid.UUID),
		createdAt:   time.Now(),
	}, nil
}

func (p *Project) ID() uuid.UUID {
	return p.id
}

// Apply регистрирует заявку кандидата. Повторная заявка отклоняется.
func (p *Project) Apply(caller uuid.UUID) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if caller == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес кандидата")
	}
	if err := p.requireStatus(models.ProjectStatusOpen); err != nil {
		return err
	}
	if p.applied[caller] {
		return apperror.New(apperror.ErrCodeAlreadyApplied, "заявка уже подана")
	}

	p.registerApplicant(caller)
	return nil
}

// Invite приглашает кандидата. Чисто сигнальная операция: назначение
// не меняется, фиксируется только событие.
func (p *Project) Invite(caller, candidate uuid.UUID) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleCreator); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusOpen); err != nil {
		return err
	}
	if candidate == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес кандидата")
	}

	p.emit(caller, models.EventCandidateInvited, map[string]interface{}{
		"candidate": candidate.String(),
	})
	return nil
}

// ApproveFreelancer назначает исполнителя и переводит проект в работу.
// Кандидат без заявки сначала регистрируется как соискатель.
func (p *Project) ApproveFreelancer(caller, candidate uuid.UUID) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleCreator); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusOpen); err != nil {
		return err
	}
	if candidate == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес кандидата")
	}

	if !p.applied[candidate] {
		p.registerApplicant(candidate)
	}
	if err := p.transition(models.ProjectStatusInProgress); err != nil {
		return err
	}
	p.freelancer = candidate
	now := time.Now()
	p.startedAt = &now

	p.emit(caller, models.EventFreelancerApproved, map[string]interface{}{
		"freelancer": candidate.String(),
	})
	return nil
}

// Cancel переводит проект в терминальное состояние. Средства из
// эскроу-кастодии при отмене не перемещаются.
func (p *Project) Cancel(caller uuid.UUID) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleCreator); err != nil {
		return err
	}
	if err := p.transition(models.ProjectStatusCancelled); err != nil {
		return err
	}

	p.emit(caller, models.EventProjectCancelled, nil)
	return nil
}

// AddMilestone добавляет веху в конец последовательности.
func (p *Project) AddMilestone(caller uuid.UUID, description string, budget uint64, deadline time.Time) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleCreator); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusInProgress); err != nil {
		return err
	}
	if !deadline.After(time.Now()) {
		return apperror.New(apperror.ErrCodeInvalidDeadline, "дедлайн вехи должен быть строго в будущем")
	}

	p.milestones = append(p.milestones, models.Milestone{
		Description: description,
		Budget:      budget,
		Deadline:    deadline,
		Status:      models.MilestoneStatusDefined,
	})

	p.emit(caller, models.EventMilestoneAdded, map[string]interface{}{
		"index":       len(p.milestones) - 1,
		"description": description,
		"budget":      budget,
		"deadline":    deadline,
	})
	return nil
}

// FundMilestone списывает бюджет вехи с вызывающего в кастодию проекта
// по заранее выданному разрешению.
func (p *Project) FundMilestone(caller uuid.UUID, index int) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleCreator); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusInProgress); err != nil {
		return err
	}
	if err := p.requireMilestone(index, models.MilestoneStatusDefined); err != nil {
		return err
	}
	budget := p.milestones[index].Budget

	// окно внешних вызовов: мьютекс свободен, guard взведён
	p.mu.Unlock()
	authorized := p.asset.Allowance(caller, p.id)
	pulled := false
	if authorized >= budget {
		pulled = p.asset.TransferFrom(p.id, caller, p.id, budget)
	}
	p.mu.Lock()

	if authorized < budget {
		return apperror.NewInvalidAmount(authorized, budget)
	}
	if !pulled {
		return apperror.New(apperror.ErrCodeTransferFailed, "расчётный актив отклонил списание")
	}

	p.milestones[index].Status = models.MilestoneStatusFunded
	p.escrowed += budget

	p.emit(caller, models.EventMilestoneFunded, map[string]interface{}{
		"index":  index,
		"amount": budget,
	})
	return nil
}

// SubmitWork фиксирует ссылку на результат и передаёт веху на приёмку.
func (p *Project) SubmitWork(caller uuid.UUID, index int, workRef string) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleFreelancer); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusInProgress); err != nil {
		return err
	}
	if err := p.requireMilestone(index, models.MilestoneStatusFunded); err != nil {
		return err
	}

	p.milestones[index].WorkRef = workRef
	p.milestones[index].Status = models.MilestoneStatusSubmitted

	p.emit(caller, models.EventWorkSubmitted, map[string]interface{}{
		"index":    index,
		"work_ref": workRef,
	})
	return nil
}

// ReleasePayment принимает веху и выплачивает её бюджет исполнителю.
// Если принята последняя веха, проект завершается и через фабрику
// выпускается репутация обеим сторонам. Ссылки метаданных проверяются
// до перевода средств: после успешного перевода отката состояния нет.
func (p *Project) ReleasePayment(caller uuid.UUID, index int, creatorRef, freelancerRef string) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleCreator); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusInProgress); err != nil {
		return err
	}
	if err := p.requireMilestone(index, models.MilestoneStatusSubmitted); err != nil {
		return err
	}

	budget := p.milestones[index].Budget
	recipient := p.freelancer
	completes := p.approvedCount() == len(p.milestones)-1
	if completes && (creatorRef == "" || freelancerRef == "") {
		return apperror.New(apperror.ErrCodeValidation, "пустая ссылка метаданных репутационного токена")
	}

	p.mu.Unlock()
	paid := p.asset.Transfer(p.id, recipient, budget)
	p.mu.Lock()

	if !paid {
		return apperror.New(apperror.ErrCodeTransferFailed, "расчётный актив отклонил выплату")
	}

	p.milestones[index].Status = models.MilestoneStatusApproved
	p.escrowed -= budget

	p.emit(caller, models.EventPaymentReleased, map[string]interface{}{
		"index":     index,
		"amount":    budget,
		"recipient": recipient.String(),
	})

	if completes {
		if err := p.complete(caller); err != nil {
			return err
		}
		if err := p.mintCompletionCredentials(caller, creatorRef, freelancerRef); err != nil {
			return err
		}
	}
	return nil
}

// RaiseDispute оспаривает сданную веху. Причина не сохраняется
// в состоянии, только публикуется событием.
func (p *Project) RaiseDispute(caller uuid.UUID, index int, reason string) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleCreator); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusInProgress); err != nil {
		return err
	}
	if err := p.requireMilestone(index, models.MilestoneStatusSubmitted); err != nil {
		return err
	}

	p.milestones[index].Status = models.MilestoneStatusDisputed

	p.emit(caller, models.EventDisputeRaised, map[string]interface{}{
		"index":  index,
		"reason": reason,
	})
	return nil
}

// ResolveDispute закрывает спор решением арбитра: бюджет вехи уходит
// исполнителю либо возвращается создателю. Завершение проекта при
// последней вехе происходит, но репутация здесь не выпускается.
func (p *Project) ResolveDispute(caller uuid.UUID, index int, payFreelancer bool) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.requireRole(caller, models.RoleArbiter); err != nil {
		return err
	}
	if err := p.requireStatus(models.ProjectStatusInProgress); err != nil {
		return err
	}
	if err := p.requireMilestone(index, models.MilestoneStatusDisputed); err != nil {
		return err
	}

	budget := p.milestones[index].Budget
	recipient := p.creator
	if payFreelancer {
		recipient = p.freelancer
	}
	completes := p.approvedCount() == len(p.milestones)-1

	p.mu.Unlock()
	paid := p.asset.Transfer(p.id, recipient, budget)
	p.mu.Lock()

	if !paid {
		return apperror.New(apperror.ErrCodeTransferFailed, "расчётный актив отклонил выплату")
	}

	p.milestones[index].Status = models.MilestoneStatusApproved
	p.escrowed -= budget

	p.emit(caller, models.EventDisputeResolved, map[string]interface{}{
		"index":          index,
		"amount":         budget,
		"recipient":      recipient.String(),
		"pay_freelancer": payFreelancer,
	})

	if completes {
		if err := p.complete(caller); err != nil {
			return err
		}
	}
	return nil
}

// GrantRole делегирует агенту право действовать от имени роли.
// Доступно только текущему обладателю роли; агент может представлять
// не более одного принципала проекта.
func (p *Project) GrantRole(caller uuid.UUID, role models.DelegationRole, agent uuid.UUID) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if !role.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "неизвестная роль")
	}
	holder := p.roleHolder(role)
	if caller == uuid.Nil || caller != holder {
		return apperror.New(apperror.ErrCodeForbidden, "делегировать роль может только её текущий обладатель")
	}
	if agent == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес агента")
	}
	if agent == caller {
		return apperror.New(apperror.ErrCodeSelfDelegation, "делегирование роли самому себе запрещено")
	}
	if _, taken := p.delegatedBy[agent]; taken {
		return apperror.New(apperror.ErrCodeConflict, "агент уже делегирован")
	}

	if p.agents[holder] == nil {
		p.agents[holder] = make(map[uuid.UUID]bool)
	}
	p.agents[holder][agent] = true
	p.delegatedBy[agent] = holder

	p.emit(caller, models.EventRoleGranted, map[string]interface{}{
		"role":      string(role),
		"agent":     agent.String(),
		"principal": holder.String(),
	})
	return nil
}

// RevokeRole отзывает делегирование. Доступно только обладателю роли.
func (p *Project) RevokeRole(caller uuid.UUID, role models.DelegationRole, agent uuid.UUID) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if !role.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "неизвестная роль")
	}
	holder := p.roleHolder(role)
	if caller == uuid.Nil || caller != holder {
		return apperror.New(apperror.ErrCodeForbidden, "отозвать делегирование может только обладатель роли")
	}
	if p.delegatedBy[agent] != holder {
		return apperror.New(apperror.ErrCodeNotFound, "агент не делегирован этой ролью")
	}

	delete(p.agents[holder], agent)
	delete(p.delegatedBy, agent)

	p.emit(caller, models.EventRoleRevoked, map[string]interface{}{
		"role":      string(role),
		"agent":     agent.String(),
		"principal": holder.String(),
	})
	return nil
}

// View возвращает консистентный снимок состояния проекта.
func (p *Project) View() models.ProjectView {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := models.ProjectView{
		ID:          p.id,
		Creator:     p.creator,
		Freelancer:  p.freelancer,
		Arbiter:     p.arbiter,
		Status:      p.status,
		Metadata:    p.meta,
		Applicants:  append([]uuid.UUID{}, p.applicants...),
		Milestones:  append([]models.Milestone{}, p.milestones...),
		Escrowed:    p.escrowed,
		CreatedAt:   p.createdAt,
		StartedAt:   p.startedAt,
		CompletedAt: p.completedAt,
	}
	view.Metadata.Skills = append([]string{}, p.meta.Skills...)
	return view
}

// Delegations возвращает снимок делегирований по трём ролям.
func (p *Project) Delegations() models.DelegationView {
	p.mu.Lock()
	defer p.mu.Unlock()

	return models.DelegationView{
		Creator:    agentList(p.agents[p.creator]),
		Freelancer: agentList(p.agents[p.freelancer]),
		Arbiter:    agentList(p.agents[p.arbiter]),
	}
}

// EscrowBalance возвращает сумму в кастодии проекта.
func (p *Project) EscrowBalance() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.escrowed
}

// RoomToken возвращает опаковый токен координационной комнаты.
func (p *Project) RoomToken() string {
	return p.meta.RoomToken
}

func (p *Project) begin() error {
	p.mu.Lock()
	if p.locked {
		p.mu.Unlock()
		return apperror.New(apperror.ErrCodeReentrantCall, "повторный вход в изменяющую операцию проекта")
	}
	p.locked = true
	return nil
}

func (p *Project) end() {
	p.locked = false
	p.mu.Unlock()
}

func (p *Project) requireStatus(s models.ProjectStatus) error {
	if p.status != s {
		return apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("операция недоступна в состоянии %s", p.status))
	}
	return nil
}

func (p *Project) requireRole(caller uuid.UUID, role models.DelegationRole) error {
	holder := p.roleHolder(role)
	if holder == uuid.Nil {
		return apperror.ErrForbidden
	}
	if caller == holder || p.agents[holder][caller] {
		return nil
	}
	return apperror.ErrForbidden
}

func (p *Project) requireMilestone(index int, s models.MilestoneStatus) error {
	if index < 0 || index >= len(p.milestones) {
		return apperror.ErrMilestoneNotFound
	}
	current := p.milestones[index].Status
	if current != s {
		return apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("веха %d в состоянии %s, ожидалось %s", index, current, s))
	}
	return nil
}

func (p *Project) roleHolder(role models.DelegationRole) uuid.UUID {
	switch role {
	case models.RoleCreator:
		return p.creator
	case models.RoleFreelancer:
		return p.freelancer
	case models.RoleArbiter:
		return p.arbiter
	}
	return uuid.Nil
}

func (p *Project) transition(to models.ProjectStatus) error {
	if !p.status.CanTransitionTo(to) {
		return apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("переход %s → %s невозможен", p.status, to))
	}
	p.status = to
	return nil
}

func (p *Project) registerApplicant(candidate uuid.UUID) {
	p.applied[candidate] = true
	p.applicants = append(p.applicants, candidate)
	p.emit(candidate, models.EventApplicantApplied, map[string]interface{}{
		"applicant": candidate.String(),
	})
}

func (p *Project) approvedCount() int {
	n := 0
	for _, m := range p.milestones {
		if m.Status == models.MilestoneStatusApproved {
			n++
		}
	}
	return n
}

func (p *Project) complete(actor uuid.UUID) error {
	if err := p.transition(models.ProjectStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	p.completedAt = &now
	p.emit(actor, models.EventProjectCompleted, nil)
	return nil
}

// mintCompletionCredentials выпускает по одному токену создателю и
// исполнителю. Входные данные проверены до перевода средств, поэтому
// отказ фабрики здесь — внутренняя ошибка, а не повод для отката.
func (p *Project) mintCompletionCredentials(actor uuid.UUID, creatorRef, freelancerRef string) error {
	mints := []struct {
		recipient uuid.UUID
		role      string
		ref       string
	}{
		{p.creator, models.CredentialRoleCreator, creatorRef},
		{p.freelancer, models.CredentialRoleFreelancer, freelancerRef},
	}
	for _, m := range mints {
		if err := p.minter.MintReputationForProject(p.id, m.recipient, p.id, m.role, m.ref); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "выпуск репутационного токена не выполнен")
		}
		p.emit(actor, models.EventReputationMinted, map[string]interface{}{
			"recipient":    m.recipient.String(),
			"role":         m.role,
			"metadata_ref": m.ref,
		})
	}
	return nil
}

func agentList(set map[uuid.UUID]bool) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for agent := range set {
		out = append(out, agent)
	}
	return out
}

func (p *Project) emit(actor uuid.UUID, eventType string, data map[string]interface{}) {
	if p.sink == nil {
		return
	}
	p.sink.Emit(models.ProjectEvent{
		ID:        uuid.New(),
		ProjectID: p.id,
		Type:      eventType,
		Actor:     actor,
		Data:      data,
		CreatedAt: time.Now(),
	})
}
