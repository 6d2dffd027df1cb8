package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/dto"
	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/middleware"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/services"
)

// DocumentHandler coordinates task-document HTTP handlers.
type DocumentHandler struct {
	taskService *services.TaskService
	log         *zap.SugaredLogger
	production  bool
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(taskService *services.TaskService, log *zap.SugaredLogger, production bool) *DocumentHandler {
	return &DocumentHandler{
		taskService: taskService,
		log:         log,
		production:  production,
	}
}

func docID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("docID"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid document ID")
		return 0, false
	}
	return id, true
}

// Upload attaches additional PDFs to an existing task, subject to the cap.
func (h *DocumentHandler) Upload(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.Internal(c, h.production, "Task not found in context", nil)
		return
	}

	files, ok := documentUploads(c)
	if !ok {
		return
	}
	if len(files) == 0 {
		apperrors.BadRequest(c, "No documents supplied")
		return
	}

	updated, err := h.taskService.AddDocuments(task.ID, files)
	if err != nil {
		respondError(c, h.log, h.production, "Failed to attach documents", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Documents uploaded successfully",
		"task":    dto.ToTaskDTO(*updated),
	})
}

// Download streams a document back under its original filename.
func (h *DocumentHandler) Download(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.Internal(c, h.production, "Task not found in context", nil)
		return
	}

	id, ok := docID(c)
	if !ok {
		return
	}

	doc, err := h.taskService.GetDocument(task.ID, id)
	if err != nil {
		respondError(c, h.log, h.production, "Failed to load document", err)
		return
	}

	c.FileAttachment(doc.FilePath, doc.OriginalName)
}

// Delete removes a single document row and its file.
func (h *DocumentHandler) Delete(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.Internal(c, h.production, "Task not found in context", nil)
		return
	}

	id, ok := docID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteDocument(task.ID, id); err != nil {
		respondError(c, h.log, h.production, "Failed to delete document", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Document deleted successfully",
	})
}
