package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/incident-backend/internal/http/handlers/common"
	"github.com/ignatzorin/incident-backend/internal/service"
)

// AdminHandler предоставляет административный обзор обращений.
type AdminHandler struct {
	reports *service.ReportService
}

// NewAdminHandler создаёт хэндлер.
func NewAdminHandler(reports *service.ReportService) *AdminHandler {
	return &AdminHandler{reports: reports}
}

// ListReports обрабатывает GET /admin/reports — все обращения со
// сведениями о владельцах.
func (h *AdminHandler) ListReports(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reports, err := h.reports.ListAll(c.Request.Context(), caller)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// GetReport обрабатывает GET /admin/reports/:reportId.
func (h *AdminHandler) GetReport(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reportID, err := common.ParseIDParam(c, "reportId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	report, err := h.reports.GetWithOwner(c.Request.Context(), reportID, caller)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// SetComment обрабатывает POST /admin/reports/:reportId/comment.
func (h *AdminHandler) SetComment(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	reportID, err := common.ParseIDParam(c, "reportId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "поле comment обязательно")
		return
	}

	report, err := h.reports.SetComment(c.Request.Context(), reportID, caller, req.Comment)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
