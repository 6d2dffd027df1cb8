package dto

import (
	"time"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
)

// DocumentDTO represents a task document in API responses
type DocumentDTO struct {
	ID           uint64    `json:"id"`
	TaskID       uint64    `json:"task_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FilePath     string    `json:"file_path"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// TaskDTO represents a task in API responses. Documents appear in upload order.
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	AssignedTo  *uint64             `json:"assigned_to"`
	CreatedBy   uint64              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Creator     *UserDTO            `json:"creator,omitempty"`
	Assignee    *UserDTO            `json:"assignee,omitempty"`
	Documents   []DocumentDTO       `json:"documents"`
}

// ToDocumentDTO converts a TaskDocument model to DocumentDTO
func ToDocumentDTO(doc models.TaskDocument) DocumentDTO {
	return DocumentDTO{
		ID:           doc.ID,
		TaskID:       doc.TaskID,
		Filename:     doc.Filename,
		OriginalName: doc.OriginalName,
		FilePath:     doc.FilePath,
		UploadedAt:   doc.UploadedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		AssignedTo:  task.AssignedTo,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Documents:   make([]DocumentDTO, len(task.Documents)),
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	// Include assignee if preloaded
	if task.Assignee != nil && task.Assignee.ID != 0 {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}

	for i, doc := range task.Documents {
		dto.Documents[i] = ToDocumentDTO(doc)
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}
