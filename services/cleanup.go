package services

import (
	"context"
	"log"
	"time"
)

const cleanupInterval = 6 * time.Hour

type notificationPurger interface {
	PurgeRead(ctx context.Context, before time.Time) (int64, error)
}

type reminderPurger interface {
	PurgeReminders(ctx context.Context, before time.Time) (int64, error)
}

// CleanupJob xoá thông báo đã đọc và reminder log quá hạn lưu giữ, chạy mỗi 6 giờ.
func CleanupJob(notifications notificationPurger, reminders reminderPurger, retentionDays int) Job {
	return Job{
		Name:     "notification-cleanup",
		Interval: cleanupInterval,
		Run: func(ctx context.Context) error {
			if retentionDays <= 0 {
				return nil
			}
			before := time.Now().AddDate(0, 0, -retentionDays)

			n, err := notifications.PurgeRead(ctx, before)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Printf("Đã xóa %d thông báo đã đọc cũ hơn %d ngày", n, retentionDays)
			}

			r, err := reminders.PurgeReminders(ctx, before)
			if err != nil {
				return err
			}
			if r > 0 {
				log.Printf("Đã xóa %d reminder log cũ", r)
			}
			return nil
		},
	}
}
