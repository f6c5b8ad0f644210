package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/incident-backend/internal/dto"
	"github.com/ignatzorin/incident-backend/internal/http/handlers/common"
	"github.com/ignatzorin/incident-backend/internal/service"
)

// AttachmentHandler управляет загрузкой, скачиванием и удалением вложений.
type AttachmentHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentHandler создаёт хэндлер.
func NewAttachmentHandler(attachments *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload обрабатывает POST /reports/attachment. Ожидает multipart-форму
// с полями report_id и file.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	rawReportID := c.PostForm("report_id")
	reportID, err := strconv.ParseInt(rawReportID, 10, 64)
	if err != nil || reportID <= 0 {
		common.RespondBadRequest(c, "поле report_id обязательно")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}

	src, err := file.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer src.Close()

	attachment, err := h.attachments.Upload(c.Request.Context(), reportID, caller, service.UploadInput{
		Filename:    file.Filename,
		Size:        file.Size,
		ContentType: file.Header.Get("Content-Type"),
		Reader:      src,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

// Download обрабатывает GET /reports/download/:filename. Файл отдаётся
// с Content-Disposition attachment, чтобы браузер скачивал, а не открывал.
func (h *AttachmentHandler) Download(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	filename := c.Param("filename")
	if filename == "" {
		common.RespondBadRequest(c, "имя файла обязательно")
		return
	}

	path, err := h.attachments.Download(c.Request.Context(), filename, caller)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.FileAttachment(path, filename)
}

// Delete обрабатывает DELETE /reports/attachment/:attachmentId.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	attachmentID, err := common.ParseIDParam(c, "attachmentId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.attachments.Delete(c.Request.Context(), attachmentID, caller); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "вложение удалено"})
}
