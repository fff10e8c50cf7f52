package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationPending            ApplicationStatus = "pending"
	ApplicationReviewed           ApplicationStatus = "reviewed"
	ApplicationShortlisted        ApplicationStatus = "shortlisted"
	ApplicationInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationAccepted           ApplicationStatus = "accepted"
	ApplicationRejected           ApplicationStatus = "rejected"
	ApplicationWithdrawn          ApplicationStatus = "withdrawn"
)

// ReviewableStatuses are the states a company may move an application into.
var ReviewableStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationReviewed,
	ApplicationShortlisted,
	ApplicationInterviewScheduled,
	ApplicationAccepted,
	ApplicationRejected,
}

type Application struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InternshipID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_application_student" json:"internship_id"`
	StudentID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_application_student" json:"student_id"`
	CoverLetter     string            `gorm:"type:text;not null" json:"cover_letter"`
	ResumeURL       *string           `gorm:"size:500" json:"resume_url,omitempty"`
	Status          ApplicationStatus `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	ResponseMessage *string           `gorm:"type:text" json:"response_message,omitempty"`
	AppliedAt       time.Time         `json:"applied_at"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Internship Internship `gorm:"constraint:OnDelete:CASCADE;" json:"internship,omitempty"`
	Student    User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE;" json:"student,omitempty"`
}
