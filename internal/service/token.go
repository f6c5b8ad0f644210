package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ignatzorin/incident-backend/internal/models"
)

// TokenManager отвечает за выпуск и проверку JWT. Роль администратора —
// обычный клейм внутри подписанного токена: никаких специальных значений
// токена, принимаемых без проверки подписи, не существует.
type TokenManager struct {
	secret     []byte
	ttl        time.Duration
	adminEmail string
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret, adminEmail string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		ttl:        ttl,
		adminEmail: adminEmail,
	}
}

// RoleFor возвращает роль для email: администратор определяется
// сконфигурированным адресом.
func (m *TokenManager) RoleFor(email string) string {
	if email == m.adminEmail {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// Generate выпускает токен с клеймами sub/email/role.
func (m *TokenManager) Generate(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"role":  m.RoleFor(user.Email),
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse проверяет подпись и срок действия токена и возвращает личность
// вызывающего.
func (m *TokenManager) Parse(token string) (models.Caller, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return models.Caller{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.Caller{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return models.Caller{}, jwt.ErrTokenInvalidClaims
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return models.Caller{}, jwt.ErrTokenInvalidClaims
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleUser
	}

	return models.Caller{UserID: userID, Email: email, Role: role}, nil
}
