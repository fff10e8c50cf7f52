package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleStudent UserRole = "student" // Sinh viên tìm thực tập
	RoleCompany UserRole = "company" // Doanh nghiệp đăng tin
	RoleAdmin   UserRole = "admin"   // Quản trị hệ thống
)

// AllRoles is the order system announcements walk through.
var AllRoles = []UserRole{RoleStudent, RoleCompany, RoleAdmin}

func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName  string    `gorm:"size:150;not null" json:"full_name"`
	Email     string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	Skills    string    `gorm:"type:text" json:"skills,omitempty"`
	Major     string    `gorm:"size:150" json:"major,omitempty"`
	Location  *string   `gorm:"size:150" json:"location,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserPreferences giữ các công tắc thông báo của người dùng.
type UserPreferences struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	EmailNotifications   bool      `gorm:"not null" json:"email_notifications"`
	PushNotifications    bool      `gorm:"not null" json:"push_notifications"`
	TaskReminders        bool      `gorm:"not null" json:"task_reminders"`
	ApplicationUpdates   bool      `gorm:"not null" json:"application_updates"`
	MessageNotifications bool      `gorm:"not null" json:"message_notifications"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// DefaultPreferences là giá trị mặc định cho user chưa có dòng preferences; email tắt cho đến khi user bật.
func DefaultPreferences(userID uuid.UUID) UserPreferences {
	return UserPreferences{
		UserID:               userID,
		EmailNotifications:   false,
		PushNotifications:    true,
		TaskReminders:        true,
		ApplicationUpdates:   true,
		MessageNotifications: true,
	}
}
