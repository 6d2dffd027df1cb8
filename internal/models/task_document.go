package models

import "time"

// TaskDocument is a PDF attachment bound to exactly one task.
// A task never carries more than three documents.
type TaskDocument struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	TaskID       uint64    `gorm:"not null;index" json:"task_id"`
	Filename     string    `gorm:"type:varchar(255);not null" json:"filename"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	FilePath     string    `gorm:"type:varchar(500);not null" json:"file_path"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
}
