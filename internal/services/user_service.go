package services

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/repository"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/storage"
)

var (
	ErrSelfDelete  = errors.New("cannot delete your own account")
	ErrNothingToDo = errors.New("no valid fields to update")
)

// UserService handles user management business logic.
type UserService struct {
	userRepo repository.UserRepository
	store    *storage.LocalStore
	log      *zap.SugaredLogger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, store *storage.LocalStore, log *zap.SugaredLogger) *UserService {
	return &UserService{
		userRepo: userRepo,
		store:    store,
		log:      log,
	}
}

// ListUsers returns users matching an email search, paginated.
func (s *UserService) ListUsers(search string, offset, limit int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(search, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdateUserInput is an explicit patch over the mutable user fields.
// Role changes only take effect when the actor is an admin.
type UpdateUserInput struct {
	Email    *string
	Password *string
	Role     *string
}

// UpdateUser applies a patch to a user profile.
func (s *UserService) UpdateUser(targetID uint64, actorRole models.UserRole, input UpdateUserInput) (*models.User, error) {
	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	fields := map[string]string{}
	patch := map[string]any{}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" || !strings.Contains(email, "@") {
			fields["email"] = "Invalid email address"
		} else {
			patch["email"] = email
		}
	}
	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			fields["password"] = fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength)
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), 12)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
			patch["password_hash"] = string(hash)
		}
	}
	if input.Role != nil && actorRole == models.RoleAdmin {
		role := models.UserRole(*input.Role)
		if !role.Valid() {
			fields["role"] = "Invalid role value"
		} else {
			patch["role"] = role
		}
	}

	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Fields: fields}
	}
	if len(patch) == 0 {
		return nil, ErrNothingToDo
	}

	if err := s.userRepo.Patch(targetID, patch); err != nil {
		if apperrors.IsDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.userRepo.FindByID(targetID)
}

// DeleteUser removes a user. Tasks the user created are cascaded away with
// their documents (rows in a transaction, files best-effort afterwards);
// tasks assigned to them lose the assignment.
func (s *UserService) DeleteUser(actorID, targetID uint64) error {
	if actorID == targetID {
		return ErrSelfDelete
	}

	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	tasks, err := s.userRepo.FindTasksCreatedBy(targetID)
	if err != nil {
		return fmt.Errorf("failed to collect user tasks: %w", err)
	}

	if err := s.userRepo.Delete(targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	for _, task := range tasks {
		for _, doc := range task.Documents {
			if err := s.store.Remove(doc.FilePath); err != nil {
				s.log.Errorw("failed to remove document file", "path", doc.FilePath, "error", err)
			}
		}
	}
	return nil
}
