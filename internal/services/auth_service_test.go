package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/repository"
)

func setupAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskDocument{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return NewAuthService(repository.NewUserRepository(db), "test-secret")
}

func TestRegister_NormalizesEmail(t *testing.T) {
	service := setupAuthService(t)

	user, err := service.Register(RegisterInput{
		Email:    "  Mixed.Case@Example.COM  ",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, "mixed.case@example.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)
	require.NotEqual(t, "supersecret", user.PasswordHash)
}

func TestRegister_RejectsBadInput(t *testing.T) {
	service := setupAuthService(t)

	tests := []struct {
		name     string
		email    string
		password string
		badField string
	}{
		{name: "missing email", email: "", password: "supersecret", badField: "email"},
		{name: "malformed email", email: "not-an-email", password: "supersecret", badField: "email"},
		{name: "short password", email: "ok@example.com", password: "abc", badField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(RegisterInput{Email: tt.email, Password: tt.password})
			var validationErr *apperrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Contains(t, validationErr.Fields, tt.badField)
		})
	}
}

func TestLogin_VerifiesPassword(t *testing.T) {
	service := setupAuthService(t)

	_, err := service.Register(RegisterInput{Email: "login@example.com", Password: "supersecret"})
	require.NoError(t, err)

	user, err := service.Login(LoginInput{Email: "login@example.com", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, "login@example.com", user.Email)

	_, err = service.Login(LoginInput{Email: "login@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(LoginInput{Email: "nobody@example.com", Password: "supersecret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestToken_RoundTrip(t *testing.T) {
	service := setupAuthService(t)

	user, err := service.Register(RegisterInput{Email: "token@example.com", Password: "supersecret"})
	require.NoError(t, err)

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.Role, claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	service := setupAuthService(t)
	other := setupAuthService(t)
	other.secret = []byte("different-secret")

	user, err := service.Register(RegisterInput{Email: "token@example.com", Password: "supersecret"})
	require.NoError(t, err)

	token, err := other.GenerateToken(user)
	require.NoError(t, err)

	_, err = service.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
