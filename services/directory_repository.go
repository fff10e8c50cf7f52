package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/internship-platform-backend/models"
)

const maxInterestMatches = 100

type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryApplication Category = "application"
	CategoryTask        Category = "task"
	CategoryMessage     Category = "message"
)

// Recipient là thông tin liên hệ và công tắc thông báo của một user.
// Khi user chưa có dòng preferences, mọi loại đều bật, riêng email tắt.
type Recipient struct {
	UserID               uuid.UUID
	Email                string
	FullName             string
	EmailNotifications   bool
	PushNotifications    bool
	TaskReminders        bool
	ApplicationUpdates   bool
	MessageNotifications bool
}

func (r *Recipient) Allows(c Category) bool {
	switch c {
	case CategoryApplication:
		return r.ApplicationUpdates
	case CategoryTask:
		return r.TaskReminders
	case CategoryMessage:
		return r.MessageNotifications
	}
	return true
}

// DirectoryStore đọc thông tin user phục vụ gửi thông báo (chỉ đọc).
type DirectoryStore interface {
	UserIDsByRole(ctx context.Context, role models.UserRole) ([]uuid.UUID, error)
	Recipient(ctx context.Context, userID uuid.UUID) (*Recipient, error)
	MatchingStudents(ctx context.Context, internship *models.Internship) ([]uuid.UUID, error)
}

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) UserIDsByRole(ctx context.Context, role models.UserRole) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", role).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *DirectoryRepository) Recipient(ctx context.Context, userID uuid.UUID) (*Recipient, error) {
	var rec Recipient
	def := models.DefaultPreferences(userID)
	res := r.db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id, u.email, u.full_name,
		       COALESCE(p.email_notifications, ?)   AS email_notifications,
		       COALESCE(p.push_notifications, ?)    AS push_notifications,
		       COALESCE(p.task_reminders, ?)        AS task_reminders,
		       COALESCE(p.application_updates, ?)   AS application_updates,
		       COALESCE(p.message_notifications, ?) AS message_notifications
		FROM users u
		LEFT JOIN user_preferences p ON p.user_id = u.id
		WHERE u.id = ?`,
		def.EmailNotifications, def.PushNotifications, def.TaskReminders,
		def.ApplicationUpdates, def.MessageNotifications, userID).Scan(&rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return &rec, nil
}

// MatchingStudents tìm sinh viên có kỹ năng, chuyên ngành hoặc địa điểm phù hợp.
func (r *DirectoryRepository) MatchingStudents(ctx context.Context, internship *models.Internship) ([]uuid.UUID, error) {
	location := ""
	if internship.Location != nil {
		location = *internship.Location
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT u.id
		FROM users u
		WHERE u.role = ?
		AND (
			u.skills ILIKE ? OR
			u.major ILIKE ? OR
			u.location ILIKE ? OR
			u.location IS NULL
		)
		LIMIT ?`,
		models.RoleStudent,
		"%"+internship.RequiredSkills+"%",
		"%"+internship.Field+"%",
		location,
		maxInterestMatches,
	).Scan(&ids).Error
	return ids, err
}
