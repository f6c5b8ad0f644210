package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/incident-backend/internal/http/handlers/common"
	"github.com/ignatzorin/incident-backend/internal/service"
)

// ProfileHandler отдаёт и обновляет профиль текущего пользователя.
type ProfileHandler struct {
	auth *service.AuthService
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(auth *service.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

// Me обрабатывает GET /users/me.
func (h *ProfileHandler) Me(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.auth.GetProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Update обрабатывает PUT /users/me. Смена пароля требует
// подтверждения текущим паролем.
func (h *ProfileHandler) Update(c *gin.Context) {
	caller, err := common.CurrentCaller(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		Email           string `json:"email"`
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), caller.UserID, service.UpdateProfileInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
