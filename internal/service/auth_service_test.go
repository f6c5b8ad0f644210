package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/incident-backend/internal/models"
	"github.com/ignatzorin/incident-backend/internal/pkg/apperror"
	"github.com/ignatzorin/incident-backend/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	nextID       int64
	usersByEmail map[string]*models.User
	usersByID    map[int64]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		nextID:       1,
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[int64]*models.User),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = m.nextID
	m.nextID++
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) EmailTakenByOther(ctx context.Context, email string, userID int64) (bool, error) {
	if user, ok := m.usersByEmail[email]; ok && user.ID != userID {
		return true, nil
	}
	return false, nil
}

func (m *mockAuthRepository) Update(ctx context.Context, user *models.User) error {
	existing, ok := m.usersByID[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	delete(m.usersByEmail, existing.Email)
	*existing = *user
	m.usersByEmail[existing.Email] = existing
	return nil
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-secret", "admin@htu.edu.jo", time.Hour)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	res, err := service.Register(ctx, RegisterInput{
		FirstName: "Lina",
		LastName:  "Haddad",
		Email:     "lina@example.com",
		Password:  "Password123",
	})
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	if res.User.ID == 0 {
		t.Fatalf("user ID должен быть установлен")
	}
	if res.Token == "" {
		t.Fatalf("ожидался токен")
	}
	if res.User.PasswordHash == "Password123" {
		t.Fatalf("пароль не должен храниться открытым текстом")
	}

	loginRes, err := service.Login(ctx, "lina@example.com", "Password123")
	if err != nil {
		t.Fatalf("login вернул ошибку: %v", err)
	}
	if loginRes.Token == "" {
		t.Fatalf("ожидался токен при входе")
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	in := RegisterInput{
		FirstName: "Lina",
		LastName:  "Haddad",
		Email:     "lina@example.com",
		Password:  "Password123",
	}
	if _, err := service.Register(ctx, in); err != nil {
		t.Fatalf("первая регистрация вернула ошибку: %v", err)
	}

	_, err := service.Register(ctx, in)
	if !apperror.IsConflict(err) {
		t.Fatalf("повторная регистрация должна завершаться конфликтом, получили %v", err)
	}
	if len(repo.usersByID) != 1 {
		t.Fatalf("дубликат не должен создавать строку")
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	if _, err := service.Register(ctx, RegisterInput{
		FirstName: "Lina",
		LastName:  "Haddad",
		Email:     "lina@example.com",
		Password:  "Password123",
	}); err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	// Неверный пароль и несуществующий email дают одну и ту же ошибку.
	_, errWrongPass := service.Login(ctx, "lina@example.com", "WrongPass1")
	_, errNoUser := service.Login(ctx, "ghost@example.com", "Password123")
	if errWrongPass == nil || errNoUser == nil {
		t.Fatalf("вход с неверными данными должен отклоняться")
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Fatalf("ошибки входа должны быть неразличимы")
	}
}

func TestAuthService_RegisterWeakPassword(t *testing.T) {
	service := NewAuthService(newMockAuthRepository(), newTestTokenManager())

	_, err := service.Register(context.Background(), RegisterInput{
		FirstName: "Lina",
		LastName:  "Haddad",
		Email:     "lina@example.com",
		Password:  "short",
	})
	if !apperror.IsValidation(err) {
		t.Fatalf("слабый пароль должен отклоняться валидацией, получили %v", err)
	}
}

func TestAuthService_UpdateProfilePasswordRequiresCurrent(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	user := &models.User{FirstName: "Lina", LastName: "Haddad", Email: "lina@example.com", PasswordHash: string(hash)}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("подготовка пользователя: %v", err)
	}

	_, err := service.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		FirstName:       "Lina",
		LastName:        "Haddad",
		Email:           "lina@example.com",
		CurrentPassword: "WrongPass1",
		NewPassword:     "NewPassword1",
	})
	if err == nil {
		t.Fatalf("смена пароля без верного текущего должна отклоняться")
	}

	updated, err := service.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		FirstName:       "Lina",
		LastName:        "Haddad",
		Email:           "lina@example.com",
		CurrentPassword: "Password123",
		NewPassword:     "NewPassword1",
	})
	if err != nil {
		t.Fatalf("update profile вернул ошибку: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("NewPassword1")) != nil {
		t.Fatalf("новый пароль должен быть захеширован")
	}
}

func TestAuthService_UpdateProfileEmailTaken(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	first, err := registerTestUser(ctx, service, "first@example.com")
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}
	if _, err := registerTestUser(ctx, service, "second@example.com"); err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	_, err = service.UpdateProfile(ctx, first.User.ID, UpdateProfileInput{
		FirstName: "Lina",
		LastName:  "Haddad",
		Email:     "second@example.com",
	})
	if !apperror.IsConflict(err) {
		t.Fatalf("занятый email должен давать конфликт, получили %v", err)
	}
}

func registerTestUser(ctx context.Context, service *AuthService, email string) (*AuthResult, error) {
	return service.Register(ctx, RegisterInput{
		FirstName: "Lina",
		LastName:  "Haddad",
		Email:     email,
		Password:  "Password123",
	})
}
