package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/internship-platform-backend/config"
)

const (
	taskDeadlineHorizon       = 3 * 24 * time.Hour
	internshipDeadlineHorizon = 7 * 24 * time.Hour
	pendingApplicationAge     = 7 * 24 * time.Hour
	lowApplicationAge         = 7 * 24 * time.Hour
	lowApplicationThreshold   = 5

	taskDeadlineWindow       = 24 * time.Hour
	internshipDeadlineWindow = 24 * time.Hour
	pendingApplicationWindow = 3 * 24 * time.Hour
	lowApplicationWindow     = 7 * 24 * time.Hour
)

// ReminderNotifier là các mẫu nhắc nhở mà đợt quét dùng (Notifier cài đặt).
type ReminderNotifier interface {
	TaskDeadlineReminder(ctx context.Context, userID uuid.UUID, taskTitle string, daysLeft int) error
	InternshipDeadlineApproaching(ctx context.Context, companyUserID, internshipID uuid.UUID, title string, daysLeft int) error
	PendingApplicationReminder(ctx context.Context, companyUserID, applicationID uuid.UUID, studentName, internshipTitle string, daysPending int) error
	LowApplicationCount(ctx context.Context, companyUserID, internshipID uuid.UUID, title string, count int64, daysActive int) error
}

type SweepResult struct {
	Matched int
	Sent    int
	Skipped int
	Failed  int
}

func (r SweepResult) String() string {
	return fmt.Sprintf("matched=%d sent=%d skipped=%d failed=%d", r.Matched, r.Sent, r.Skipped, r.Failed)
}

type ReminderService struct {
	store    ReminderStore
	notifier ReminderNotifier
	timeout  time.Duration
	now      func() time.Time
}

func NewReminderService(store ReminderStore, notifier ReminderNotifier, timeout time.Duration) *ReminderService {
	return &ReminderService{
		store:    store,
		notifier: notifier,
		timeout:  timeout,
		now:      time.Now,
	}
}

// daysBetween làm tròn lên theo ngày, giống cách tính của bản gốc.
func daysBetween(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

func (s *ReminderService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// remind giữ chỗ trong reminder_logs rồi mới gửi; gửi lỗi thì trả chỗ để lần sau thử lại.
func (s *ReminderService) remind(ctx context.Context, res *SweepResult, userID, entityID uuid.UUID, kind ReminderKind, window time.Duration, send func() error) {
	res.Matched++
	claimed, err := s.store.ClaimReminder(ctx, userID, entityID, kind, s.now(), window)
	if err != nil {
		res.Failed++
		log.Printf("[reminder] claim %s/%s lỗi: %v", kind, entityID, err)
		return
	}
	if !claimed {
		res.Skipped++
		return
	}
	if err := send(); err != nil {
		res.Failed++
		log.Printf("[reminder] gửi %s/%s lỗi: %v", kind, entityID, err)
		if err := s.store.ReleaseReminder(ctx, userID, entityID, kind); err != nil {
			log.Printf("[reminder] trả slot %s/%s lỗi: %v", kind, entityID, err)
		}
		return
	}
	res.Sent++
}

func (s *ReminderService) CheckTaskDeadlines(ctx context.Context) (SweepResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res SweepResult
	now := s.now()
	tasks, err := s.store.DueTasks(ctx, now, now.Add(taskDeadlineHorizon))
	if err != nil {
		return res, fmt.Errorf("query due tasks: %w", err)
	}
	for _, t := range tasks {
		t := t
		s.remind(ctx, &res, t.UserID, t.ID, ReminderTaskDeadline, taskDeadlineWindow, func() error {
			return s.notifier.TaskDeadlineReminder(ctx, t.UserID, t.Title, daysBetween(now, t.DueDate))
		})
	}
	return res, nil
}

func (s *ReminderService) CheckInternshipDeadlines(ctx context.Context) (SweepResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res SweepResult
	now := s.now()
	rows, err := s.store.ClosingInternships(ctx, now, now.Add(internshipDeadlineHorizon))
	if err != nil {
		return res, fmt.Errorf("query closing internships: %w", err)
	}
	for _, in := range rows {
		in := in
		s.remind(ctx, &res, in.CompanyUserID, in.ID, ReminderInternshipDeadline, internshipDeadlineWindow, func() error {
			return s.notifier.InternshipDeadlineApproaching(ctx, in.CompanyUserID, in.ID, in.Title, daysBetween(now, in.ApplicationDeadline))
		})
	}
	return res, nil
}

func (s *ReminderService) CheckPendingApplications(ctx context.Context) (SweepResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res SweepResult
	now := s.now()
	rows, err := s.store.StalePendingApplications(ctx, now.Add(-pendingApplicationAge))
	if err != nil {
		return res, fmt.Errorf("query pending applications: %w", err)
	}
	for _, a := range rows {
		a := a
		s.remind(ctx, &res, a.CompanyUserID, a.ID, ReminderPendingApplication, pendingApplicationWindow, func() error {
			return s.notifier.PendingApplicationReminder(ctx, a.CompanyUserID, a.ID, a.StudentName, a.InternshipTitle, daysBetween(a.AppliedAt, now))
		})
	}
	return res, nil
}

func (s *ReminderService) CheckLowApplicationCounts(ctx context.Context) (SweepResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res SweepResult
	now := s.now()
	rows, err := s.store.UnderappliedInternships(ctx, now.Add(-lowApplicationAge), lowApplicationThreshold)
	if err != nil {
		return res, fmt.Errorf("query low application counts: %w", err)
	}
	for _, in := range rows {
		in := in
		s.remind(ctx, &res, in.CompanyUserID, in.ID, ReminderLowApplications, lowApplicationWindow, func() error {
			return s.notifier.LowApplicationCount(ctx, in.CompanyUserID, in.ID, in.Title, in.ApplicationCount, daysBetween(in.CreatedAt, now))
		})
	}
	return res, nil
}

func (s *ReminderService) sweep(name string, fn func(context.Context) (SweepResult, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		log.Printf("[reminder] %s: %s", name, res)
		return nil
	}
}

// Jobs trả về bốn đợt quét độc lập, mỗi đợt một chu kỳ và độ trễ khởi động riêng.
func (s *ReminderService) Jobs(cfg config.NotificationConfig) []Job {
	stagger := cfg.StartupStagger
	return []Job{
		{Name: "task-deadlines", Interval: cfg.TaskDeadlineInterval, InitialDelay: stagger, Run: s.sweep("task deadlines", s.CheckTaskDeadlines)},
		{Name: "internship-deadlines", Interval: cfg.InternshipDeadlineInterval, InitialDelay: 2 * stagger, Run: s.sweep("internship deadlines", s.CheckInternshipDeadlines)},
		{Name: "pending-applications", Interval: cfg.PendingApplicationInterval, InitialDelay: 3 * stagger, Run: s.sweep("pending applications", s.CheckPendingApplications)},
		{Name: "low-application-counts", Interval: cfg.LowApplicationInterval, InitialDelay: 4 * stagger, Run: s.sweep("low application counts", s.CheckLowApplicationCounts)},
	}
}
