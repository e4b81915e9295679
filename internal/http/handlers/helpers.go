package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CollabraChain/escrow-backend/internal/dto"
	"github.com/CollabraChain/escrow-backend/internal/http/handlers/common"
	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
)

// respondEngineError транслирует ошибку протокола в HTTP ответ: код и
// статус несёт сама ошибка, всё прочее маскируется как внутреннее.
func respondEngineError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Error: appErr.Message,
			Code:  string(appErr.Code),
		})
		return
	}

	common.RespondInternalError(c, "")
}

// parseMilestoneIndex читает номер вехи из параметра пути.
func parseMilestoneIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		common.RespondBadRequest(c, "номер вехи должен быть неотрицательным числом")
		return 0, false
	}
	return index, true
}
