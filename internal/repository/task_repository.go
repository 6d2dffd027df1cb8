package repository

import (
	"gorm.io/gorm"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// CreateWithDocuments inserts the task row, then one document row per
// accepted file, inside a single transaction. The closure form releases the
// transaction's connection on every exit path.
func (r *GormTaskRepository) CreateWithDocuments(task *models.Task, docs []models.TaskDocument) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		for i := range docs {
			docs[i].TaskID = task.ID
			if err := tx.Create(&docs[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByID finds a task by ID with optional preloading. The Documents
// relation always comes back in id (upload) order.
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		if p == "Documents" {
			query = query.Preload("Documents", func(db *gorm.DB) *gorm.DB {
				return db.Order("task_documents.id ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.VisibleToUID != nil {
		query = query.Where("tasks.created_by = ? OR tasks.assigned_to = ?",
			*filter.VisibleToUID, *filter.VisibleToUID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.
		Preload("Creator").
		Preload("Assignee").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_documents.id ASC")
		}).
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Patch applies the supplied fields to a task. Only keys present in the map
// change; the statement is fixed and parameterized.
func (r *GormTaskRepository) Patch(id uint64, fields map[string]any) error {
	return r.db.Model(&models.Task{ID: id}).Updates(fields).Error
}

// Delete removes a task together with its document rows
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskDocument{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddDocuments inserts document rows for an existing task
func (r *GormTaskRepository) AddDocuments(docs []models.TaskDocument) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range docs {
			if err := tx.Create(&docs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountDocuments returns the number of documents attached to a task
func (r *GormTaskRepository) CountDocuments(taskID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TaskDocument{}).Where("task_id = ?", taskID).Count(&count).Error
	return count, err
}

// FindDocument finds a document belonging to the given task
func (r *GormTaskRepository) FindDocument(taskID, docID uint64) (*models.TaskDocument, error) {
	var doc models.TaskDocument
	if err := r.db.Where("task_id = ?", taskID).First(&doc, docID).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a single document row
func (r *GormTaskRepository) DeleteDocument(docID uint64) error {
	return r.db.Delete(&models.TaskDocument{}, docID).Error
}
