package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/dto"
	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/middleware"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/services"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/utils"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
	log         *zap.SugaredLogger
	production  bool
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, log *zap.SugaredLogger, production bool) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
		production:  production,
	}
}

// documentUploads pulls the attachment parts out of a multipart request and
// enforces the upload constraints: at most three parts, PDF only, 10 MB each.
// Constraint failures reject the request before any row or file is created.
func documentUploads(c *gin.Context) ([]*multipart.FileHeader, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		apperrors.BadRequest(c, "Invalid multipart form")
		return nil, false
	}

	files := form.File[constants.DocumentFieldName]
	if len(files) > constants.MaxDocumentsPerTask {
		apperrors.PayloadTooLarge(c, fmt.Sprintf("At most %d documents are allowed", constants.MaxDocumentsPerTask))
		return nil, false
	}

	for _, fh := range files {
		if fh.Header.Get("Content-Type") != constants.DocumentContentType {
			apperrors.BadRequest(c, "Only PDF files are allowed")
			return nil, false
		}
		if fh.Size > constants.MaxDocumentSize {
			apperrors.PayloadTooLarge(c, "File size exceeds maximum allowed")
			return nil, false
		}
	}

	return files, true
}

// CreateTask creates a task together with up to three PDF attachments.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	files, ok := documentUploads(c)
	if !ok {
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Status:      c.PostForm("status"),
		Priority:    c.PostForm("priority"),
		DueDate:     c.PostForm("due_date"),
		AssignedTo:  c.PostForm("assigned_to"),
		CreatorID:   userID,
	}, files)
	if err != nil {
		respondError(c, h.log, h.production, "Failed to create task", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// ListTasks returns the tasks visible to the actor, filtered and paginated.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	role, _ := middleware.GetUserRole(c)

	input := services.ListTasksInput{
		ActorID:   userID,
		ActorRole: role,
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			apperrors.BadRequest(c, "Invalid status value")
			return
		}
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		if !priority.Valid() {
			apperrors.BadRequest(c, "Invalid priority value")
			return
		}
		input.Priority = &priority
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondError(c, h.log, h.production, "Failed to list tasks", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "OK",
		"tasks":      dto.ToTaskDTOs(tasks),
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// GetTask returns the task loaded by RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.Internal(c, h.production, "Task not found in context", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "OK",
		"task":    dto.ToTaskDTO(*task),
	})
}

// UpdateTask applies a partial update to a task. Only supplied fields change.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.Internal(c, h.production, "Task not found in context", nil)
		return
	}

	// Raw JSON is parsed to tell "field absent" apart from "field null".
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{}
	if v, present := raw["title"]; present {
		if s, ok := v.(string); ok {
			input.Title = &s
		}
	}
	if v, present := raw["description"]; present {
		if s, ok := v.(string); ok {
			input.Description = &s
		}
	}
	if v, present := raw["status"]; present {
		if s, ok := v.(string); ok {
			input.Status = &s
		}
	}
	if v, present := raw["priority"]; present {
		if s, ok := v.(string); ok {
			input.Priority = &s
		}
	}
	if v, present := raw["due_date"]; present {
		if v == nil {
			input.ClearDueDate = true
		} else if s, ok := v.(string); ok {
			input.DueDate = &s
		}
	}
	if v, present := raw["assigned_to"]; present {
		if v == nil {
			input.ClearAssignee = true
		} else if f, ok := v.(float64); ok && f >= 0 {
			id := uint64(f)
			input.AssignedTo = &id
		} else {
			apperrors.BadRequest(c, "Invalid user ID")
			return
		}
	}

	updated, err := h.taskService.UpdateTask(task.ID, input)
	if err != nil {
		respondError(c, h.log, h.production, "Failed to update task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"task":    dto.ToTaskDTO(*updated),
	})
}

// DeleteTask removes a task, its document rows and their files.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.Internal(c, h.production, "Task not found in context", nil)
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		respondError(c, h.log, h.production, "Failed to delete task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
	})
}
