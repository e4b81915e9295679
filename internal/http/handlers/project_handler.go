package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/dto"
	"github.com/CollabraChain/escrow-backend/internal/http/handlers/common"
	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/service"
)

// ProjectHandler предоставляет HTTP слой для проектов эскроу.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler создаёт хэндлер.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProject POST /projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deadline, err := req.ParseDeadline()
	if err != nil {
		common.RespondBadRequest(c, "deadline_at должен быть в формате RFC3339")
		return
	}

	view, err := h.projects.Create(c.Request.Context(), userID, service.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Skills:      req.Skills,
		TotalBudget: req.TotalBudget,
		Deadline:    deadline,
		ScopeRef:    req.ScopeRef,
		RoomToken:   req.RoomToken,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListProjects GET /projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	views, total := h.projects.List(c.Request.Context(), limit, offset)

	c.JSON(http.StatusOK, dto.PaginatedProjectsResponse{
		Data: views,
		Pagination: dto.Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(views) < total,
		},
	})
}

// GetProject GET /projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	view, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Apply POST /projects/:id/apply
func (h *ProjectHandler) Apply(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	if err := h.projects.Apply(c.Request.Context(), projectID, userID); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// ListApplicants GET /projects/:id/applicants
func (h *ProjectHandler) ListApplicants(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	applicants, err := h.projects.Applicants(c.Request.Context(), projectID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applicants": applicants})
}

// Invite POST /projects/:id/invite
func (h *ProjectHandler) Invite(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	candidate, err := req.ParseCandidate()
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор кандидата")
		return
	}

	if err := h.projects.Invite(c.Request.Context(), projectID, userID, candidate); err != nil {
		respondEngineError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "приглашение отправлено", nil)
}

// ApproveFreelancer POST /projects/:id/approve
func (h *ProjectHandler) ApproveFreelancer(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	var req dto.ApproveFreelancerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	candidate, err := req.ParseCandidate()
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор кандидата")
		return
	}

	if err := h.projects.ApproveFreelancer(c.Request.Context(), projectID, userID, candidate); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// CancelProject POST /projects/:id/cancel
func (h *ProjectHandler) CancelProject(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	if err := h.projects.Cancel(c.Request.Context(), projectID, userID); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// AddMilestone POST /projects/:id/milestones
func (h *ProjectHandler) AddMilestone(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	var req dto.AddMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deadline, err := req.ParseDeadline()
	if err != nil {
		common.RespondBadRequest(c, "deadline_at должен быть в формате RFC3339")
		return
	}

	if err := h.projects.AddMilestone(c.Request.Context(), projectID, userID, service.MilestoneInput{
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    deadline,
	}); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// ListMilestones GET /projects/:id/milestones
func (h *ProjectHandler) ListMilestones(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestones, err := h.projects.Milestones(c.Request.Context(), projectID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// FundMilestone POST /projects/:id/milestones/:index/fund
func (h *ProjectHandler) FundMilestone(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	index, ok := parseMilestoneIndex(c)
	if !ok {
		return
	}

	if err := h.projects.FundMilestone(c.Request.Context(), projectID, userID, index); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// SubmitWork POST /projects/:id/milestones/:index/submit
func (h *ProjectHandler) SubmitWork(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	index, ok := parseMilestoneIndex(c)
	if !ok {
		return
	}

	var req dto.SubmitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.projects.SubmitWork(c.Request.Context(), projectID, userID, index, req.WorkRef); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// ReleasePayment POST /projects/:id/milestones/:index/release
func (h *ProjectHandler) ReleasePayment(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	index, ok := parseMilestoneIndex(c)
	if !ok {
		return
	}

	var req dto.ReleasePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.projects.ReleasePayment(
		c.Request.Context(), projectID, userID, index,
		req.CreatorCredentialRef, req.FreelancerCredentialRef,
	); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// RaiseDispute POST /projects/:id/milestones/:index/dispute
func (h *ProjectHandler) RaiseDispute(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	index, ok := parseMilestoneIndex(c)
	if !ok {
		return
	}

	var req dto.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.projects.RaiseDispute(c.Request.Context(), projectID, userID, index, req.Reason); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// ResolveDispute POST /projects/:id/milestones/:index/resolve
func (h *ProjectHandler) ResolveDispute(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	index, ok := parseMilestoneIndex(c)
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "pay_freelancer обязателен")
		return
	}

	if err := h.projects.ResolveDispute(c.Request.Context(), projectID, userID, index, *req.PayFreelancer); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondView(c, projectID)
}

// GrantRole POST /projects/:id/delegates
func (h *ProjectHandler) GrantRole(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	var req dto.DelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	agent, err := req.ParseAgent()
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор агента")
		return
	}

	if err := h.projects.GrantRole(c.Request.Context(), projectID, userID, models.DelegationRole(req.Role), agent); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondDelegations(c, projectID)
}

// RevokeRole DELETE /projects/:id/delegates
func (h *ProjectHandler) RevokeRole(c *gin.Context) {
	userID, projectID, ok := h.callerAndProject(c)
	if !ok {
		return
	}

	var req dto.DelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	agent, err := req.ParseAgent()
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор агента")
		return
	}

	if err := h.projects.RevokeRole(c.Request.Context(), projectID, userID, models.DelegationRole(req.Role), agent); err != nil {
		respondEngineError(c, err)
		return
	}

	h.respondDelegations(c, projectID)
}

// ListDelegations GET /projects/:id/delegates
func (h *ProjectHandler) ListDelegations(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	h.respondDelegations(c, projectID)
}

// ListEvents GET /projects/:id/events
func (h *ProjectHandler) ListEvents(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	events, err := h.projects.Events(c.Request.Context(), projectID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEscrow GET /projects/:id/escrow
func (h *ProjectHandler) GetEscrow(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrowed, err := h.projects.EscrowBalance(c.Request.Context(), projectID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EscrowResponse{ProjectID: projectID, Escrowed: escrowed})
}

// RoomProjects GET /rooms/:token/projects
func (h *ProjectHandler) RoomProjects(c *gin.Context) {
	token := c.Param("token")

	views, err := h.projects.ProjectsByRoom(c.Request.Context(), token)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": views})
}

// callerAndProject извлекает адрес вызывающего и идентификатор проекта.
func (h *ProjectHandler) callerAndProject(c *gin.Context) (userID, projectID uuid.UUID, ok bool) {
	uid, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	pid, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	return uid, pid, true
}

// respondView отвечает актуальным срезом состояния проекта.
func (h *ProjectHandler) respondView(c *gin.Context, projectID uuid.UUID) {
	view, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// respondDelegations отвечает текущими делегированиями проекта.
func (h *ProjectHandler) respondDelegations(c *gin.Context, projectID uuid.UUID) {
	delegations, err := h.projects.Delegations(c.Request.Context(), projectID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, delegations)
}
