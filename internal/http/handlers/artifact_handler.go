package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/CollabraChain/escrow-backend/internal/dto"
	"github.com/CollabraChain/escrow-backend/internal/http/handlers/common"
	"github.com/CollabraChain/escrow-backend/internal/logger"
	"github.com/CollabraChain/escrow-backend/internal/storage"
)

// ArtifactHandler — загрузка и выдача артефактов: описаний объёма работ,
// результатов по вехам, метаданных репутации.
type ArtifactHandler struct {
	storage *storage.ArtifactStorage
}

// NewArtifactHandler создаёт хэндлер.
func NewArtifactHandler(artifacts *storage.ArtifactStorage) *ArtifactHandler {
	return &ArtifactHandler{storage: artifacts}
}

// Upload POST /artifacts
func (h *ArtifactHandler) Upload(c *gin.Context) {
	if _, err := common.CurrentUserID(c); err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл не найден в запросе (поле file)")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось открыть файл")
		return
	}
	defer src.Close()

	ref, size, err := h.storage.Save(c.Request.Context(), src)
	if err != nil {
		logger.Log.WithError(err).Warn("загрузка артефакта отклонена")
		common.RespondBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusCreated, dto.ArtifactResponse{Ref: ref, Size: size})
}

// Download GET /artifacts/:ref
func (h *ArtifactHandler) Download(c *gin.Context) {
	ref := c.Param("ref")
	if !storage.IsValidRef(ref) {
		common.RespondBadRequest(c, "некорректная контент-ссылка")
		return
	}

	f, contentType, err := h.storage.Open(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			common.RespondNotFound(c, "артефакт не найден")
			return
		}
		logger.Log.WithError(err).Error("не удалось открыть артефакт")
		common.RespondInternalError(c, "")
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		logger.Log.WithError(err).Error("не удалось получить размер артефакта")
		common.RespondInternalError(c, "")
		return
	}

	c.DataFromReader(http.StatusOK, fi.Size(), contentType, f, nil)
}
