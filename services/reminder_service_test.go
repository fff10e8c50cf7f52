package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/internship-platform-backend/config"
	"github.com/vnkhanh/internship-platform-backend/models"
)

type slotKey struct {
	user, entity uuid.UUID
	kind         ReminderKind
}

// memReminders giả lập reminder_logs với cùng quy tắc cửa sổ như câu upsert.
type memReminders struct {
	mu       sync.Mutex
	slots    map[slotKey]time.Time
	tasks    []DueTask
	closing  []ClosingInternship
	pending  []PendingApplication
	lowApps  []UnderappliedInternship
	queryErr error
}

func newMemReminders() *memReminders {
	return &memReminders{slots: map[slotKey]time.Time{}}
}

func (m *memReminders) DueTasks(context.Context, time.Time, time.Time) ([]DueTask, error) {
	return m.tasks, m.queryErr
}

func (m *memReminders) ClosingInternships(context.Context, time.Time, time.Time) ([]ClosingInternship, error) {
	return m.closing, m.queryErr
}

func (m *memReminders) StalePendingApplications(context.Context, time.Time) ([]PendingApplication, error) {
	return m.pending, m.queryErr
}

func (m *memReminders) UnderappliedInternships(context.Context, time.Time, int) ([]UnderappliedInternship, error) {
	return m.lowApps, m.queryErr
}

func (m *memReminders) ClaimReminder(_ context.Context, userID, entityID uuid.UUID, kind ReminderKind, now time.Time, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slotKey{userID, entityID, kind}
	if last, ok := m.slots[k]; ok && last.After(now.Add(-window)) {
		return false, nil
	}
	m.slots[k] = now
	return true, nil
}

func (m *memReminders) ReleaseReminder(_ context.Context, userID, entityID uuid.UUID, kind ReminderKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slotKey{userID, entityID, kind})
	return nil
}

func (m *memReminders) PurgeReminders(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newReminderFixture(now time.Time) (*ReminderService, *memReminders, *memStore, *NotificationService) {
	store := newMemStore()
	dir := &memDirectory{roles: map[models.UserRole][]uuid.UUID{}, recipients: map[uuid.UUID]*Recipient{}}
	svc := NewNotificationService(store, dir, &recordingPusher{offline: map[string]bool{}})
	reminders := newMemReminders()
	rs := NewReminderService(reminders, NewNotifier(svc, dir), time.Minute)
	rs.now = func() time.Time { return now }
	return rs, reminders, store, svc
}

func TestTaskDeadlineSweepSendsOncePerWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rs, reminders, store, _ := newReminderFixture(now)
	student := uuid.New()
	reminders.tasks = []DueTask{{ID: uuid.New(), Title: "Build API", DueDate: now.Add(36 * time.Hour), UserID: student}}

	first, err := rs.CheckTaskDeadlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Matched: 1, Sent: 1}, first)

	second, err := rs.CheckTaskDeadlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Matched: 1, Skipped: 1}, second)

	page, _, err := store.List(context.Background(), student, ListQuery{})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Task Deadline Reminder 📅", page[0].Title)
	assert.Contains(t, page[0].Message, "due in 2 days")
	assert.Equal(t, models.NotificationWarning, page[0].Type)
}

func TestTaskDeadlineSweepAfterWindowRemindsAgain(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rs, reminders, store, _ := newReminderFixture(now)
	student := uuid.New()
	reminders.tasks = []DueTask{{ID: uuid.New(), Title: "Docs", DueDate: now.Add(60 * time.Hour), UserID: student}}

	_, err := rs.CheckTaskDeadlines(context.Background())
	require.NoError(t, err)

	rs.now = func() time.Time { return now.Add(25 * time.Hour) }
	res, err := rs.CheckTaskDeadlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, store.countFor(student))
}

func TestFailedSendReleasesSlot(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rs, reminders, store, _ := newReminderFixture(now)
	company := uuid.New()
	reminders.closing = []ClosingInternship{{ID: uuid.New(), Title: "Go Intern", ApplicationDeadline: now.Add(20 * time.Hour), CompanyUserID: company}}

	store.createErr = errors.New("insert failed")
	res, err := rs.CheckInternshipDeadlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, reminders.slots)

	store.createErr = nil
	res, err = rs.CheckInternshipDeadlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	list, _, err := store.List(context.Background(), company, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Internship Deadline Tomorrow! ⏰", list[0].Title)
	assert.Equal(t, models.NotificationError, list[0].Type)
}

func TestPendingAndLowApplicationSweeps(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rs, reminders, store, _ := newReminderFixture(now)
	company := uuid.New()
	reminders.pending = []PendingApplication{{
		ID: uuid.New(), AppliedAt: now.Add(-8 * 24 * time.Hour), StudentName: "An", InternshipTitle: "Backend", CompanyUserID: company,
	}}
	reminders.lowApps = []UnderappliedInternship{{
		ID: uuid.New(), Title: "Frontend", CreatedAt: now.Add(-10 * 24 * time.Hour), CompanyUserID: company, ApplicationCount: 2,
	}}

	res, err := rs.CheckPendingApplications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	res, err = rs.CheckLowApplicationCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	list, _, err := store.List(context.Background(), company, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Message, "only received 2 applications in 10 days")
	assert.Contains(t, list[1].Message, "An's application for \"Backend\" has been pending for 8 days")
}

func TestSweepQueryErrorIsReturned(t *testing.T) {
	rs, reminders, _, _ := newReminderFixture(time.Now())
	reminders.queryErr = errors.New("timeout")

	_, err := rs.CheckTaskDeadlines(context.Background())
	assert.Error(t, err)
}

func TestDaysBetweenRoundsUp(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(base, base.Add(2*time.Hour)))
	assert.Equal(t, 1, daysBetween(base, base.Add(24*time.Hour)))
	assert.Equal(t, 2, daysBetween(base, base.Add(25*time.Hour)))
	assert.Equal(t, 3, daysBetween(base, base.Add(72*time.Hour)))
}

func TestJobsUseIndependentIntervalsAndStagger(t *testing.T) {
	rs, _, _, _ := newReminderFixture(time.Now())
	cfg := config.NotificationConfig{
		TaskDeadlineInterval:       time.Hour,
		InternshipDeadlineInterval: 6 * time.Hour,
		PendingApplicationInterval: 12 * time.Hour,
		LowApplicationInterval:     24 * time.Hour,
		StartupStagger:             10 * time.Second,
	}

	jobs := rs.Jobs(cfg)
	require.Len(t, jobs, 4)
	wantIntervals := []time.Duration{time.Hour, 6 * time.Hour, 12 * time.Hour, 24 * time.Hour}
	for i, j := range jobs {
		assert.Equal(t, wantIntervals[i], j.Interval, j.Name)
		assert.Equal(t, time.Duration(i+1)*10*time.Second, j.InitialDelay, j.Name)
		assert.NotNil(t, j.Run)
	}
}
