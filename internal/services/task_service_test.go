package services

import (
	"mime/multipart"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/logger"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/repository"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/storage"
)

func setupTaskService(t *testing.T) (*TaskService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskDocument{})
	require.NoError(t, err)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	service := NewTaskService(taskRepo, userRepo, store, logger.NewNop())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return service, db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: string(hash), Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateTask_FieldValidation(t *testing.T) {
	service, db := setupTaskService(t)
	creator := seedUser(t, db, "creator@example.com")

	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	yesterday := time.Now().Add(-24 * time.Hour).Format("2006-01-02")

	tests := []struct {
		name       string
		input      CreateTaskInput
		badField   string
		wantStatus models.TaskStatus
	}{
		{
			name:     "missing title",
			input:    CreateTaskInput{CreatorID: creator.ID},
			badField: "title",
		},
		{
			name:     "whitespace title",
			input:    CreateTaskInput{Title: "   ", CreatorID: creator.ID},
			badField: "title",
		},
		{
			name:     "invalid status",
			input:    CreateTaskInput{Title: "T", Status: "done", CreatorID: creator.ID},
			badField: "status",
		},
		{
			name:     "invalid priority",
			input:    CreateTaskInput{Title: "T", Priority: "urgent", CreatorID: creator.ID},
			badField: "priority",
		},
		{
			name:     "malformed due date",
			input:    CreateTaskInput{Title: "T", DueDate: "next tuesday", CreatorID: creator.ID},
			badField: "due_date",
		},
		{
			name:     "past due date",
			input:    CreateTaskInput{Title: "T", DueDate: yesterday, CreatorID: creator.ID},
			badField: "due_date",
		},
		{
			name:     "non numeric assignee",
			input:    CreateTaskInput{Title: "T", AssignedTo: "bob", CreatorID: creator.ID},
			badField: "assigned_to",
		},
		{
			name:     "unknown assignee",
			input:    CreateTaskInput{Title: "T", AssignedTo: "9999", CreatorID: creator.ID},
			badField: "assigned_to",
		},
		{
			name:       "valid with future due date",
			input:      CreateTaskInput{Title: "T", Status: "in_progress", DueDate: tomorrow, CreatorID: creator.ID},
			wantStatus: models.TaskStatusInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := service.CreateTask(tt.input, nil)
			if tt.badField != "" {
				require.Error(t, err)
				var validationErr *apperrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Fields, tt.badField)
				require.Nil(t, task)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, task.Status)
			require.NotNil(t, task.DueDate)
		})
	}
}

func TestCreateTask_TitleLength(t *testing.T) {
	service, db := setupTaskService(t)
	creator := seedUser(t, db, "creator@example.com")

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}

	_, err := service.CreateTask(CreateTaskInput{Title: string(long), CreatorID: creator.ID}, nil)
	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "title")

	_, err = service.CreateTask(CreateTaskInput{Title: string(long[:255]), CreatorID: creator.ID}, nil)
	require.NoError(t, err)
}

func TestCreateTask_RFC3339DueDate(t *testing.T) {
	service, db := setupTaskService(t)
	creator := seedUser(t, db, "creator@example.com")

	due := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	task, err := service.CreateTask(CreateTaskInput{Title: "T", DueDate: due, CreatorID: creator.ID}, nil)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
}

func TestUpdateTask_ClearFields(t *testing.T) {
	service, db := setupTaskService(t)
	creator := seedUser(t, db, "creator@example.com")
	assignee := seedUser(t, db, "assignee@example.com")

	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	task, err := service.CreateTask(CreateTaskInput{
		Title:      "T",
		DueDate:    tomorrow,
		AssignedTo: strconv.FormatUint(assignee.ID, 10),
		CreatorID:  creator.ID,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	require.NotNil(t, task.AssignedTo)
	require.Equal(t, assignee.ID, *task.AssignedTo)

	updated, err := service.UpdateTask(task.ID, UpdateTaskInput{
		ClearDueDate:  true,
		ClearAssignee: true,
	})
	require.NoError(t, err)
	require.Nil(t, updated.DueDate)
	require.Nil(t, updated.AssignedTo)
	require.Equal(t, "T", updated.Title)
}

func TestUpdateTask_UnknownAssignee(t *testing.T) {
	service, db := setupTaskService(t)
	creator := seedUser(t, db, "creator@example.com")

	task, err := service.CreateTask(CreateTaskInput{Title: "T", CreatorID: creator.ID}, nil)
	require.NoError(t, err)

	missing := uint64(9999)
	_, err = service.UpdateTask(task.ID, UpdateTaskInput{AssignedTo: &missing})
	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "assigned_to")
}

func TestUpdateTask_NotFound(t *testing.T) {
	service, _ := setupTaskService(t)

	title := "renamed"
	_, err := service.UpdateTask(42, UpdateTaskInput{Title: &title})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAddDocuments_CapCountsExistingRows(t *testing.T) {
	service, db := setupTaskService(t)
	creator := seedUser(t, db, "creator@example.com")

	task, err := service.CreateTask(CreateTaskInput{Title: "T", CreatorID: creator.ID}, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		doc := models.TaskDocument{TaskID: task.ID, Filename: "f.pdf", OriginalName: "f.pdf", FilePath: "missing/f.pdf"}
		require.NoError(t, db.Create(&doc).Error)
	}

	_, err = service.AddDocuments(task.ID, nil)
	require.NoError(t, err)

	// The cap check runs before any file is touched, so placeholder
	// headers are enough to trip it.
	_, err = service.AddDocuments(task.ID, make([]*multipart.FileHeader, 1))
	require.ErrorIs(t, err, ErrDocumentLimit)
}
