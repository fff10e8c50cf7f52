package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Instructor  string    `gorm:"size:150" json:"instructor,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_user" json:"course_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_user" json:"user_id"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`

	Course Course `gorm:"constraint:OnDelete:CASCADE;" json:"course,omitempty"`
	User   User   `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}
