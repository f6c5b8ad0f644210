package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/incident-backend/internal/http/middleware"
	"github.com/ignatzorin/incident-backend/internal/models"
)

// withCaller кладёт проверенную личность в контекст, минуя JWT слой.
func withCaller(caller models.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextCallerKey, caller)
		c.Next()
	}
}

func TestReportHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	r.POST("/reports", handler.Create)

	req, _ := http.NewRequest("POST", "/reports", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	caller := models.Caller{UserID: 1, Role: models.RoleUser}
	r.GET("/reports/:reportId", withCaller(caller), handler.Get)

	req, _ := http.NewRequest("GET", "/reports/not-a-number", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_Create_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	caller := models.Caller{UserID: 1, Role: models.RoleUser}
	r.POST("/reports", withCaller(caller), handler.Create)

	req, _ := http.NewRequest("POST", "/reports", strings.NewReader(`{"location":"библиотека"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_ListForUser_ForbiddenForOtherUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	caller := models.Caller{UserID: 1, Role: models.RoleUser}
	r.GET("/reports/user/:userId", withCaller(caller), handler.ListForUser)

	req, _ := http.NewRequest("GET", "/reports/user/2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandler_SetStatus_MissingBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	caller := models.Caller{UserID: 9, Role: models.RoleAdmin}
	r.PATCH("/reports/:reportId/status", withCaller(caller), handler.SetStatus)

	req, _ := http.NewRequest("PATCH", "/reports/1/status", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
