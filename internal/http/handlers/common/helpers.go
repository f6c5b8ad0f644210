package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/incident-backend/internal/dto"
	"github.com/ignatzorin/incident-backend/internal/http/middleware"
	"github.com/ignatzorin/incident-backend/internal/models"
	"github.com/ignatzorin/incident-backend/internal/pkg/apperror"
)

// ErrCallerNotFound is returned when caller identity is missing from context
var ErrCallerNotFound = errors.New("вызывающий не найден в контексте")

// CurrentCaller extracts the verified caller identity from Gin context
func CurrentCaller(c *gin.Context) (models.Caller, error) {
	raw, exists := c.Get(middleware.ContextCallerKey)
	if !exists {
		return models.Caller{}, ErrCallerNotFound
	}

	caller, ok := raw.(models.Caller)
	if !ok {
		return models.Caller{}, ErrCallerNotFound
	}

	return caller, nil
}

// ParseIDParam parses a positive integer id from URL parameter
func ParseIDParam(c *gin.Context, paramName string) (int64, error) {
	param := c.Param(paramName)
	if param == "" {
		return 0, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный идентификатор %s", paramName)
	}

	return id, nil
}

// RespondError sends a standardized error response
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message})
}

// RespondAppError translates a service error into an HTTP response,
// masking anything that is not a typed application error
func RespondAppError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		RespondError(c, appErr.HTTPStatus, appErr.Message)
		return
	}

	// Сырые внутренние ошибки уходят в централизованный обработчик.
	_ = c.Error(err)
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, message)
}
