package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/repository"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/storage"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentLimit    = errors.New("a task cannot have more than 3 documents")
	ErrDuplicateTask    = errors.New("task with similar attributes already exists")
)

// taskPreloads are the relations loaded whenever a full task is returned.
// Documents come back in upload (insert) order.
var taskPreloads = []string{"Creator", "Assignee", "Documents"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	store    *storage.LocalStore
	log      *zap.SugaredLogger
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, store *storage.LocalStore, log *zap.SugaredLogger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		store:    store,
		log:      log,
	}
}

// CreateTaskInput carries the raw text fields of a creation request.
// Values arrive as strings from the multipart form and are validated here.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     string
	AssignedTo  string
	CreatorID   uint64
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ActorID   uint64
	ActorRole models.UserRole
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	Page      int
	PageSize  int
}

// UpdateTaskInput is an explicit patch: each field is independently
// present-or-absent, and only supplied fields change.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	DueDate       *string
	ClearDueDate  bool
	AssignedTo    *uint64
	ClearAssignee bool
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// validateCreate checks the text fields and returns the parsed values plus
// a per-field error map. An empty map means the input is valid.
func (s *TaskService) validateCreate(input CreateTaskInput) (*models.Task, map[string]string) {
	fields := map[string]string{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields["title"] = "Title is required"
	} else if len(title) > constants.MaxTitleLength {
		fields["title"] = "Title must be between 1-255 characters"
	}

	task := &models.Task{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      models.TaskStatusPending,
		Priority:    models.TaskPriorityMedium,
		CreatedBy:   input.CreatorID,
	}

	if input.Status != "" {
		status := models.TaskStatus(input.Status)
		if !status.Valid() {
			fields["status"] = "Invalid status value"
		} else {
			task.Status = status
		}
	}

	if input.Priority != "" {
		priority := models.TaskPriority(input.Priority)
		if !priority.Valid() {
			fields["priority"] = "Invalid priority value"
		} else {
			task.Priority = priority
		}
	}

	if input.DueDate != "" {
		due, err := parseDueDate(input.DueDate)
		if err != nil {
			fields["due_date"] = "Invalid date format (YYYY-MM-DD)"
		} else if due.Before(time.Now()) {
			// A due date exactly equal to now is accepted.
			fields["due_date"] = "Due date cannot be in the past"
		} else {
			task.DueDate = &due
		}
	}

	if input.AssignedTo != "" {
		id, err := strconv.ParseUint(input.AssignedTo, 10, 64)
		if err != nil {
			fields["assigned_to"] = "Invalid user ID"
		} else {
			task.AssignedTo = &id
		}
	}

	return task, fields
}

// CreateTask atomically creates a task together with zero-to-three document
// attachments. Field validation and the assignee check run before anything
// touches the upload store; once files are written, every failure path
// removes them again before returning.
func (s *TaskService) CreateTask(input CreateTaskInput, files []*multipart.FileHeader) (*models.Task, error) {
	task, fields := s.validateCreate(input)

	if task.AssignedTo != nil && fields["assigned_to"] == "" {
		exists, err := s.userRepo.ExistsByID(*task.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("failed to check assignee: %w", err)
		}
		if !exists {
			fields["assigned_to"] = "Assigned user not found"
		}
	}

	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Fields: fields}
	}

	saved, err := s.saveFiles(files)
	if err != nil {
		return nil, err
	}

	docs := make([]models.TaskDocument, len(saved))
	for i, f := range saved {
		docs[i] = models.TaskDocument{
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			FilePath:     f.Path,
		}
	}

	if err := s.taskRepo.CreateWithDocuments(task, docs); err != nil {
		s.cleanupFiles(saved)
		if apperrors.IsDuplicate(err) {
			return nil, ErrDuplicateTask
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	full, err := s.taskRepo.FindByID(task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return full, nil
}

// saveFiles persists uploads to the store; a failure midway removes the
// files written so far.
func (s *TaskService) saveFiles(files []*multipart.FileHeader) ([]storage.SavedFile, error) {
	saved := make([]storage.SavedFile, 0, len(files))
	for _, fh := range files {
		f, err := s.store.Save(fh)
		if err != nil {
			s.cleanupFiles(saved)
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		saved = append(saved, f)
	}
	return saved, nil
}

// cleanupFiles is the compensating delete for files written during a failed
// request. Failures are logged, never escalated.
func (s *TaskService) cleanupFiles(saved []storage.SavedFile) {
	for _, f := range saved {
		if err := s.store.Remove(f.Path); err != nil {
			s.log.Errorw("failed to clean up uploaded file", "path", f.Path, "error", err)
		}
	}
}

// ListTasks returns tasks visible to the actor. Admins see everything;
// regular users see tasks they created or are assigned to.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:   input.Status,
		Priority: input.Priority,
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	if input.ActorRole != models.RoleAdmin {
		filter.VisibleToUID = &input.ActorID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns a task with its creator, assignee and ordered documents.
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a patch to an existing task. Only supplied fields change.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	fields := map[string]string{}
	patch := map[string]any{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			fields["title"] = "Title is required"
		} else if len(title) > constants.MaxTitleLength {
			fields["title"] = "Title must be between 1-255 characters"
		} else {
			patch["title"] = title
		}
	}
	if input.Description != nil {
		patch["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		status := models.TaskStatus(*input.Status)
		if !status.Valid() {
			fields["status"] = "Invalid status value"
		} else {
			patch["status"] = status
		}
	}
	if input.Priority != nil {
		priority := models.TaskPriority(*input.Priority)
		if !priority.Valid() {
			fields["priority"] = "Invalid priority value"
		} else {
			patch["priority"] = priority
		}
	}
	if input.ClearDueDate {
		patch["due_date"] = nil
	} else if input.DueDate != nil {
		due, err := parseDueDate(*input.DueDate)
		if err != nil {
			fields["due_date"] = "Invalid date format (YYYY-MM-DD)"
		} else {
			patch["due_date"] = due
		}
	}
	if input.ClearAssignee {
		patch["assigned_to"] = nil
	} else if input.AssignedTo != nil {
		exists, err := s.userRepo.ExistsByID(*input.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("failed to check assignee: %w", err)
		}
		if !exists {
			fields["assigned_to"] = "Assigned user not found"
		} else {
			patch["assigned_to"] = *input.AssignedTo
		}
	}

	if len(fields) > 0 {
		return nil, &apperrors.ValidationError{Fields: fields}
	}

	if len(patch) > 0 {
		if err := s.taskRepo.Patch(taskID, patch); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	return s.taskRepo.FindByID(taskID, taskPreloads...)
}

// DeleteTask removes a task, its document rows and their files. File
// removal is best-effort; the rows are gone either way.
func (s *TaskService) DeleteTask(taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID, "Documents")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	for _, doc := range task.Documents {
		if err := s.store.Remove(doc.FilePath); err != nil {
			s.log.Errorw("failed to remove document file", "path", doc.FilePath, "error", err)
		}
	}
	return nil
}

// AddDocuments attaches more PDFs to an existing task, subject to the
// three-document cap. The same cleanup contract as creation applies.
func (s *TaskService) AddDocuments(taskID uint64, files []*multipart.FileHeader) (*models.Task, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	count, err := s.taskRepo.CountDocuments(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count+int64(len(files)) > constants.MaxDocumentsPerTask {
		return nil, ErrDocumentLimit
	}

	saved, err := s.saveFiles(files)
	if err != nil {
		return nil, err
	}

	docs := make([]models.TaskDocument, len(saved))
	for i, f := range saved {
		docs[i] = models.TaskDocument{
			TaskID:       taskID,
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			FilePath:     f.Path,
		}
	}

	if err := s.taskRepo.AddDocuments(docs); err != nil {
		s.cleanupFiles(saved)
		return nil, fmt.Errorf("failed to attach documents: %w", err)
	}

	return s.taskRepo.FindByID(taskID, taskPreloads...)
}

// GetDocument returns a document belonging to the given task.
func (s *TaskService) GetDocument(taskID, docID uint64) (*models.TaskDocument, error) {
	doc, err := s.taskRepo.FindDocument(taskID, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes a single document row and then its file.
func (s *TaskService) DeleteDocument(taskID, docID uint64) error {
	doc, err := s.GetDocument(taskID, docID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.DeleteDocument(doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := s.store.Remove(doc.FilePath); err != nil {
		s.log.Errorw("failed to remove document file", "path", doc.FilePath, "error", err)
	}
	return nil
}
