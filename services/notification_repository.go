package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/internship-platform-backend/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type ListQuery struct {
	Page       int
	Limit      int
	UnreadOnly bool
}

func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// NotificationStore là lớp lưu trữ của bảng notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, q ListQuery) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error
}

func (r *NotificationRepository) scope(ctx context.Context, userID uuid.UUID, unreadOnly bool) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		tx = tx.Where("read_at IS NULL")
	}
	return tx
}

func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, q ListQuery) ([]models.Notification, int64, error) {
	q = q.Normalize()

	var total int64
	if err := r.scope(ctx, userID, q.UnreadOnly).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := make([]models.Notification, 0, q.Limit)
	err := r.scope(ctx, userID, q.UnreadOnly).
		Order("created_at DESC").
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// MarkRead chỉ cập nhật bản ghi chưa đọc; gọi lần hai trả về ErrNotFound.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (*models.Notification, error) {
	var n models.Notification
	res := r.db.WithContext(ctx).Model(&n).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Updates(map[string]interface{}{"read_at": at, "updated_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Updates(map[string]interface{}{"read_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND read_at IS NOT NULL", userID).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.scope(ctx, userID, true).Count(&count).Error
	return count, err
}

// PurgeRead xoá thông báo đã đọc cũ hơn mốc before (job dọn dẹp).
func (r *NotificationRepository) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", before).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
