package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/incident-backend/internal/models"
	"github.com/ignatzorin/incident-backend/internal/service"
)

func newAuthTestRouter(tokens *service.TokenManager, adminRoute bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", AuthMiddleware(tokens))
	if adminRoute {
		group.Use(AdminOnly())
	}
	group.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tokens := service.NewTokenManager("secret", "admin@htu.edu.jo", time.Hour)
	r := newAuthTestRouter(tokens, false)

	req, _ := http.NewRequest("GET", "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectsUnsignedSentinel(t *testing.T) {
	tokens := service.NewTokenManager("secret", "admin@htu.edu.jo", time.Hour)
	r := newAuthTestRouter(tokens, true)

	// Строковые «особые» токены не проходят проверку подписи.
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := service.NewTokenManager("secret", "admin@htu.edu.jo", time.Hour)
	r := newAuthTestRouter(tokens, false)

	token, err := tokens.Generate(&models.User{ID: 1, Email: "user@example.com"})
	assert.NoError(t, err)

	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnly_RejectsRegularUser(t *testing.T) {
	tokens := service.NewTokenManager("secret", "admin@htu.edu.jo", time.Hour)
	r := newAuthTestRouter(tokens, true)

	token, err := tokens.Generate(&models.User{ID: 1, Email: "user@example.com"})
	assert.NoError(t, err)

	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnly_AllowsConfiguredAdmin(t *testing.T) {
	tokens := service.NewTokenManager("secret", "admin@htu.edu.jo", time.Hour)
	r := newAuthTestRouter(tokens, true)

	token, err := tokens.Generate(&models.User{ID: 2, Email: "admin@htu.edu.jo"})
	assert.NoError(t, err)

	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
