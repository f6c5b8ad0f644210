package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/incident-backend/internal/dto"
	"github.com/ignatzorin/incident-backend/internal/http/handlers/common"
	"github.com/ignatzorin/incident-backend/internal/service"
)

// ReportHandler предоставляет HTTP слой для обращений пользователя.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler создаёт хэндлер.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// reportRequest — общее тело для создания и обновления обращения.
type reportRequest struct {
	IncidentDate   string  `json:"incident_date" binding:"required"`
	IncidentTime   string  `json:"incident_time" binding:"required"`
	Location       string  `json:"location" binding:"required"`
	SubmissionDate string  `json:"submission_date"`
	IncidentType   string  `json:"incident_type" binding:"required"`
	Description    string  `json:"description" binding:"required"`
	Witnesses      *string `json:"witnesses"`
}

func (r reportRequest) toInput() service.ReportInput {
	return service.ReportInput{
		IncidentDate:   r.IncidentDate,
		IncidentTime:   r.IncidentTime,
		Location:       r.Location,
		SubmissionDate: r.SubmissionDate,
		IncidentType:   r.IncidentType,
		Description:    r.Description,
		Witnesses:      r.Witnesses,
	}
}

// Create обрабатывает POST /reports.
func (h *ReportHandler) Create(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "не все обязательные поля заполнены")
		return
	}

	report, err := h.reports.Create(c.Request.Context(), caller.UserID, req.toInput())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListForUser обрабатывает GET /reports/user/:userId. Пользователь видит
// только собственные обращения, администратор — обращения любого пользователя.
func (h *ReportHandler) ListForUser(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	userID, err := common.ParseIDParam(c, "userId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if !caller.IsAdmin() && userID != caller.UserID {
		common.RespondError(c, http.StatusForbidden, "доступ запрещён")
		return
	}

	reports, err := h.reports.ListForOwner(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// Get обрабатывает GET /reports/:reportId.
func (h *ReportHandler) Get(c *gin.Context) {
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

	report, err := h.reports.Get(c.Request.Context(), reportID, caller)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Update обрабатывает PUT /reports/:reportId.
func (h *ReportHandler) Update(c *gin.Context) {
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

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "не все обязательные поля заполнены")
		return
	}

	report, err := h.reports.Update(c.Request.Context(), reportID, caller, req.toInput())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Delete обрабатывает DELETE /reports/:reportId.
func (h *ReportHandler) Delete(c *gin.Context) {
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

	if err := h.reports.Delete(c.Request.Context(), reportID, caller); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "обращение удалено"})
}

// SetStatus обрабатывает PATCH /reports/:reportId/status.
func (h *ReportHandler) SetStatus(c *gin.Context) {
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
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "поле status обязательно")
		return
	}

	report, err := h.reports.SetStatus(c.Request.Context(), reportID, caller, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
