package repository

import (
	"gorm.io/gorm"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByID reports whether a user with the given ID exists
func (r *GormUserRepository) ExistsByID(id uint64) (bool, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves users matching an email search with pagination
func (r *GormUserRepository) List(search string, offset, limit int) ([]models.User, int64, error) {
	var users []models.User

	query := r.db.Model(&models.User{})
	if search != "" {
		query = query.Where("email LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Patch applies the supplied fields to a user
func (r *GormUserRepository) Patch(id uint64, fields map[string]any) error {
	return r.db.Model(&models.User{ID: id}).Updates(fields).Error
}

// Delete removes a user. Tasks the user created are removed with their
// document rows; tasks assigned to the user keep the row with assignment
// cleared.
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var createdIDs []uint64
		if err := tx.Model(&models.Task{}).
			Where("created_by = ?", id).
			Pluck("id", &createdIDs).Error; err != nil {
			return err
		}

		if len(createdIDs) > 0 {
			if err := tx.Where("task_id IN ?", createdIDs).Delete(&models.TaskDocument{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Task{}, createdIDs).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Task{}).
			Where("assigned_to = ?", id).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, id).Error
	})
}

// FindTasksCreatedBy returns the tasks a user created, with documents
func (r *GormUserRepository) FindTasksCreatedBy(userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Preload("Documents").Where("created_by = ?", userID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
