package database

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
)

// Seed creates the default admin and test users if they do not exist yet.
func Seed(db *gorm.DB, log *zap.SugaredLogger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), 12)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	seeds := []models.User{
		{Email: "admin@test.com", PasswordHash: string(hash), Role: models.RoleAdmin},
		{Email: "user@test.com", PasswordHash: string(hash), Role: models.RoleUser},
	}

	for _, user := range seeds {
		var existing models.User
		err := db.Where("email = ?", user.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check seed user %s: %w", user.Email, err)
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create seed user %s: %w", user.Email, err)
		}
		log.Infow("seed user created", "email", user.Email, "role", user.Role)
	}

	return nil
}
