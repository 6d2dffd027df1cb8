package repository

import (
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateWithDocuments inserts a task and its document rows in a single
	// transaction. On any failure nothing is persisted.
	CreateWithDocuments(task *models.Task, docs []models.TaskDocument) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Patch applies the supplied fields to a task
	Patch(id uint64, fields map[string]any) error

	// Delete removes a task together with its document rows
	Delete(id uint64) error

	// AddDocuments inserts document rows for an existing task
	AddDocuments(docs []models.TaskDocument) error

	// CountDocuments returns the number of documents attached to a task
	CountDocuments(taskID uint64) (int64, error)

	// FindDocument finds a document belonging to the given task
	FindDocument(taskID, docID uint64) (*models.TaskDocument, error)

	// DeleteDocument removes a single document row
	DeleteDocument(docID uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	VisibleToUID *uint64 // restrict to tasks created by or assigned to this user
	Page         int
	PageSize     int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// ExistsByID reports whether a user with the given ID exists
	ExistsByID(id uint64) (bool, error)

	// List retrieves users matching an email search with pagination
	List(search string, offset, limit int) ([]models.User, int64, error)

	// Patch applies the supplied fields to a user
	Patch(id uint64, fields map[string]any) error

	// Delete removes a user, cascading created tasks and nulling assignments
	Delete(id uint64) error

	// FindTasksCreatedBy returns the tasks a user created, with documents
	FindTasksCreatedBy(userID uint64) ([]models.Task, error)
}
