package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_notification_user_created" json:"user_id"` // người nhận
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"type:varchar(20);not null;default:'info'" json:"type"`
	ActionURL *string          `gorm:"size:500" json:"action_url"`
	ReadAt    *time.Time       `gorm:"index" json:"read_at"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_notification_user_created,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// ReminderLog đánh dấu lần nhắc gần nhất cho một thực thể, dùng để chống gửi trùng.
type ReminderLog struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_slot" json:"user_id"`
	EntityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_slot" json:"entity_id"`
	Kind     string    `gorm:"size:50;not null;uniqueIndex:idx_reminder_slot" json:"kind"`
	SentAt   time.Time `gorm:"not null;index" json:"sent_at"`
}
