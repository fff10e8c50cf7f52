package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskSubmitted  TaskStatus = "submitted"
	TaskCompleted  TaskStatus = "completed"
	TaskRejected   TaskStatus = "rejected"
)

// Task là bài tập giao cho sinh viên trong quá trình thực tập.
type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	AssignedTo     uuid.UUID  `gorm:"type:uuid;not null;index" json:"assigned_to"`
	AssignedBy     uuid.UUID  `gorm:"type:uuid;not null" json:"assigned_by"`
	InternshipID   *uuid.UUID `gorm:"type:uuid;index" json:"internship_id,omitempty"`
	DueDate        *time.Time `gorm:"index" json:"due_date,omitempty"`
	Status         TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	GithubLink     *string    `gorm:"size:500" json:"github_link,omitempty"`
	DeploymentLink *string    `gorm:"size:500" json:"deployment_link,omitempty"`
	Notes          *string    `gorm:"type:text" json:"additional_notes,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	Feedback       *string    `gorm:"type:text" json:"feedback,omitempty"`
	FeedbackBy     *uuid.UUID `gorm:"type:uuid" json:"feedback_by,omitempty"`
	FeedbackAt     *time.Time `json:"feedback_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Assignee User `gorm:"foreignKey:AssignedTo;constraint:OnDelete:CASCADE;" json:"-"`
}
