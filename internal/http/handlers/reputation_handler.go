package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CollabraChain/escrow-backend/internal/http/handlers/common"
	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/service"
)

// ReputationHandler — чтение репутационных токенов.
type ReputationHandler struct {
	reputation *service.ReputationService
}

// NewReputationHandler создаёт хэндлер.
func NewReputationHandler(reputation *service.ReputationService) *ReputationHandler {
	return &ReputationHandler{reputation: reputation}
}

// ListUserCredentials GET /users/:id/credentials
func (h *ReputationHandler) ListUserCredentials(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	// ?as=subject — токены, где аккаунт выступает предметом оценки,
	// по умолчанию — токены, которыми аккаунт владеет.
	var credentials []models.Credential
	switch c.DefaultQuery("as", "recipient") {
	case "recipient":
		credentials = h.reputation.CredentialsOfUser(c.Request.Context(), userID)
	case "subject":
		credentials = h.reputation.CredentialsBySubject(c.Request.Context(), userID)
	default:
		common.RespondBadRequest(c, "параметр as принимает значения recipient или subject")
		return
	}

	c.JSON(http.StatusOK, gin.H{"credentials": credentials})
}

// GetCredential GET /credentials/:id
func (h *ReputationHandler) GetCredential(c *gin.Context) {
	credentialID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	credential, err := h.reputation.CredentialByID(c.Request.Context(), credentialID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, credential)
}
