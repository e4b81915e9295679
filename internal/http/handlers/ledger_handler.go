package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CollabraChain/escrow-backend/internal/dto"
	"github.com/CollabraChain/escrow-backend/internal/http/handlers/common"
	"github.com/CollabraChain/escrow-backend/internal/service"
)

// LedgerHandler — операции с расчётным активом.
type LedgerHandler struct {
	ledger *service.LedgerService
}

// NewLedgerHandler создаёт хэндлер.
func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// GetBalance GET /ledger/balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	// По умолчанию отвечаем балансом вызывающего, ?address= позволяет
	// посмотреть чужой счёт: балансы в протоколе публичны.
	address := userID
	if raw := c.Query("address"); raw != "" {
		parsed, err := common.ParseUUID(raw)
		if err != nil {
			common.RespondBadRequest(c, "неверный адрес счёта")
			return
		}
		address = parsed
	}

	balance := h.ledger.Balance(c.Request.Context(), address)
	c.JSON(http.StatusOK, dto.BalanceResponse{Address: address, Balance: balance})
}

// Approve POST /ledger/approve
func (h *LedgerHandler) Approve(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.LedgerApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	spender, err := req.ParseSpender()
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор получателя разрешения")
		return
	}

	if err := h.ledger.Approve(c.Request.Context(), userID, spender, req.Amount); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AllowanceResponse{
		Owner:     userID,
		Spender:   spender,
		Allowance: h.ledger.Allowance(c.Request.Context(), userID, spender),
	})
}

// GetAllowance GET /ledger/allowance
func (h *LedgerHandler) GetAllowance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	owner := userID
	if raw := c.Query("owner"); raw != "" {
		parsed, err := common.ParseUUID(raw)
		if err != nil {
			common.RespondBadRequest(c, "неверный адрес владельца")
			return
		}
		owner = parsed
	}

	spender, err := common.ParseUUID(c.Query("spender"))
	if err != nil {
		common.RespondBadRequest(c, "параметр spender обязателен")
		return
	}

	c.JSON(http.StatusOK, dto.AllowanceResponse{
		Owner:     owner,
		Spender:   spender,
		Allowance: h.ledger.Allowance(c.Request.Context(), owner, spender),
	})
}

// Transfer POST /ledger/transfer
func (h *LedgerHandler) Transfer(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.LedgerTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	to, err := req.ParseTo()
	if err != nil {
		common.RespondBadRequest(c, "неверный адрес получателя")
		return
	}

	if err := h.ledger.Transfer(c.Request.Context(), userID, to, req.Amount); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Address: userID,
		Balance: h.ledger.Balance(c.Request.Context(), userID),
	})
}

// Faucet POST /ledger/faucet
func (h *LedgerHandler) Faucet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	credited, err := h.ledger.Faucet(c.Request.Context(), userID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FaucetResponse{
		Address:  userID,
		Credited: credited,
		Balance:  h.ledger.Balance(c.Request.Context(), userID),
	})
}
