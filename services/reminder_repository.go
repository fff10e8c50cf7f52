package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/internship-platform-backend/models"
)

type ReminderKind string

const (
	ReminderTaskDeadline       ReminderKind = "task_deadline"
	ReminderInternshipDeadline ReminderKind = "internship_deadline"
	ReminderPendingApplication ReminderKind = "pending_application"
	ReminderLowApplications    ReminderKind = "low_applications"
)

type DueTask struct {
	ID      uuid.UUID
	Title   string
	DueDate time.Time
	UserID  uuid.UUID
}

type ClosingInternship struct {
	ID                  uuid.UUID
	Title               string
	ApplicationDeadline time.Time
	CompanyUserID       uuid.UUID
}

type PendingApplication struct {
	ID              uuid.UUID
	AppliedAt       time.Time
	StudentName     string
	InternshipTitle string
	CompanyUserID   uuid.UUID
}

type UnderappliedInternship struct {
	ID               uuid.UUID
	Title            string
	CreatedAt        time.Time
	CompanyUserID    uuid.UUID
	ApplicationCount int64
}

// ReminderStore chứa các truy vấn quét và sổ chống gửi trùng reminder_logs.
type ReminderStore interface {
	DueTasks(ctx context.Context, from, to time.Time) ([]DueTask, error)
	ClosingInternships(ctx context.Context, from, to time.Time) ([]ClosingInternship, error)
	StalePendingApplications(ctx context.Context, appliedBefore time.Time) ([]PendingApplication, error)
	UnderappliedInternships(ctx context.Context, createdBefore time.Time, threshold int) ([]UnderappliedInternship, error)

	// ClaimReminder giữ chỗ (user, entity, kind); false khi đã nhắc trong cửa sổ window.
	ClaimReminder(ctx context.Context, userID, entityID uuid.UUID, kind ReminderKind, now time.Time, window time.Duration) (bool, error)
	ReleaseReminder(ctx context.Context, userID, entityID uuid.UUID, kind ReminderKind) error
	PurgeReminders(ctx context.Context, before time.Time) (int64, error)
}

type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) DueTasks(ctx context.Context, from, to time.Time) ([]DueTask, error) {
	var rows []DueTask
	err := r.db.WithContext(ctx).Raw(`
		SELECT t.id, t.title, t.due_date, t.assigned_to AS user_id
		FROM tasks t
		WHERE t.status NOT IN (?, ?)
		AND t.due_date IS NOT NULL
		AND t.due_date > ?
		AND t.due_date <= ?`,
		models.TaskCompleted, models.TaskSubmitted, from, to,
	).Scan(&rows).Error
	return rows, err
}

func (r *ReminderRepository) ClosingInternships(ctx context.Context, from, to time.Time) ([]ClosingInternship, error) {
	var rows []ClosingInternship
	err := r.db.WithContext(ctx).Raw(`
		SELECT i.id, i.title, i.application_deadline, c.user_id AS company_user_id
		FROM internships i
		JOIN companies c ON i.company_id = c.id
		WHERE i.status = ?
		AND i.application_deadline IS NOT NULL
		AND i.application_deadline > ?
		AND i.application_deadline <= ?`,
		models.InternshipPublished, from, to,
	).Scan(&rows).Error
	return rows, err
}

func (r *ReminderRepository) StalePendingApplications(ctx context.Context, appliedBefore time.Time) ([]PendingApplication, error) {
	var rows []PendingApplication
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.id, a.applied_at, u.full_name AS student_name, i.title AS internship_title,
		       c.user_id AS company_user_id
		FROM applications a
		JOIN users u ON a.student_id = u.id
		JOIN internships i ON a.internship_id = i.id
		JOIN companies c ON i.company_id = c.id
		WHERE a.status = ?
		AND a.applied_at <= ?`,
		models.ApplicationPending, appliedBefore,
	).Scan(&rows).Error
	return rows, err
}

func (r *ReminderRepository) UnderappliedInternships(ctx context.Context, createdBefore time.Time, threshold int) ([]UnderappliedInternship, error) {
	var rows []UnderappliedInternship
	err := r.db.WithContext(ctx).Raw(`
		SELECT i.id, i.title, i.created_at, c.user_id AS company_user_id,
		       COUNT(a.id) AS application_count
		FROM internships i
		JOIN companies c ON i.company_id = c.id
		LEFT JOIN applications a ON a.internship_id = i.id
		WHERE i.status = ?
		AND i.created_at <= ?
		GROUP BY i.id, i.title, i.created_at, c.user_id
		HAVING COUNT(a.id) < ?`,
		models.InternshipPublished, createdBefore, threshold,
	).Scan(&rows).Error
	return rows, err
}

// ClaimReminder dùng INSERT ... ON CONFLICT DO UPDATE ... WHERE sent_at <= cutoff:
// chỉ một lần nhắc thắng trong mỗi cửa sổ, kể cả khi nhiều instance cùng quét.
func (r *ReminderRepository) ClaimReminder(ctx context.Context, userID, entityID uuid.UUID, kind ReminderKind, now time.Time, window time.Duration) (bool, error) {
	entry := models.ReminderLog{
		UserID:   userID,
		EntityID: entityID,
		Kind:     string(kind),
		SentAt:   now,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "entity_id"}, {Name: "kind"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"sent_at": now}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("reminder_logs.sent_at <= ?", now.Add(-window)),
		}},
	}).Create(&entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ReminderRepository) ReleaseReminder(ctx context.Context, userID, entityID uuid.UUID, kind ReminderKind) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND entity_id = ? AND kind = ?", userID, entityID, string(kind)).
		Delete(&models.ReminderLog{}).Error
}

func (r *ReminderRepository) PurgeReminders(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("sent_at < ?", before).Delete(&models.ReminderLog{})
	return res.RowsAffected, res.Error
}
