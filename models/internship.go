package models

import (
	"time"

	"github.com/google/uuid"
)

type InternshipStatus string

const (
	InternshipDraft     InternshipStatus = "draft"
	InternshipPublished InternshipStatus = "published"
	InternshipClosed    InternshipStatus = "closed"
)

type Internship struct {
	ID                  uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"company_id"`
	Title               string           `gorm:"size:255;not null" json:"title"`
	Slug                string           `gorm:"size:300;uniqueIndex" json:"slug"`
	Description         string           `gorm:"type:text" json:"description"`
	Field               string           `gorm:"size:150" json:"field,omitempty"`
	RequiredSkills      string           `gorm:"type:text" json:"required_skills,omitempty"`
	Location            *string          `gorm:"size:150" json:"location,omitempty"`
	Status              InternshipStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ApplicationDeadline *time.Time       `json:"application_deadline,omitempty"`
	CreatedAt           time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Company Company `gorm:"constraint:OnDelete:CASCADE;" json:"company,omitempty"`
}
