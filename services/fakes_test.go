package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/ws"
)

// memStore là NotificationStore trong bộ nhớ cho test.
type memStore struct {
	mu        sync.Mutex
	rows      []models.Notification
	createErr error
	clock     time.Time
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.clock = m.clock.Add(time.Second)
	n.ID = uuid.New()
	n.CreatedAt = m.clock
	n.UpdatedAt = m.clock
	m.rows = append(m.rows, *n)
	return nil
}

func (m *memStore) owned(userID uuid.UUID, unreadOnly bool) []models.Notification {
	var out []models.Notification
	for _, n := range m.rows {
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) List(_ context.Context, userID uuid.UUID, q ListQuery) ([]models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q = q.Normalize()
	all := m.owned(userID, q.UnreadOnly)
	start := q.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memStore) MarkRead(_ context.Context, userID, id uuid.UUID, at time.Time) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		n := &m.rows[i]
		if n.ID == id && n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &at
			cp := *n
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int64
	for i := range m.rows {
		if m.rows[i].UserID == userID && m.rows[i].ReadAt == nil {
			m.rows[i].ReadAt = &at
			updated++
		}
	}
	return updated, nil
}

func (m *memStore) remove(keep func(models.Notification) bool) int64 {
	kept := m.rows[:0]
	var removed int64
	for _, n := range m.rows {
		if keep(n) {
			kept = append(kept, n)
		} else {
			removed++
		}
	}
	m.rows = kept
	return removed
}

func (m *memStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.remove(func(n models.Notification) bool { return n.ID != id || n.UserID != userID }) == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *memStore) DeleteAll(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(func(n models.Notification) bool { return n.UserID != userID }), nil
}

func (m *memStore) DeleteRead(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(func(n models.Notification) bool { return n.UserID != userID || n.ReadAt == nil }), nil
}

func (m *memStore) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.owned(userID, true))), nil
}

func (m *memStore) countFor(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.owned(userID, false))
}

type memDirectory struct {
	roles      map[models.UserRole][]uuid.UUID
	recipients map[uuid.UUID]*Recipient
	matches    []uuid.UUID
	roleErr    error
}

func (d *memDirectory) UserIDsByRole(_ context.Context, role models.UserRole) ([]uuid.UUID, error) {
	if d.roleErr != nil {
		return nil, d.roleErr
	}
	return d.roles[role], nil
}

func (d *memDirectory) Recipient(_ context.Context, userID uuid.UUID) (*Recipient, error) {
	if r, ok := d.recipients[userID]; ok {
		return r, nil
	}
	return &Recipient{
		UserID:               userID,
		PushNotifications:    true,
		TaskReminders:        true,
		ApplicationUpdates:   true,
		MessageNotifications: true,
	}, nil
}

func (d *memDirectory) MatchingStudents(_ context.Context, _ *models.Internship) ([]uuid.UUID, error) {
	return d.matches, nil
}

type pushed struct {
	UserID string
	Event  ws.Event
}

// recordingPusher ghi lại mọi sự kiện; offline chứa các user không có kết nối.
type recordingPusher struct {
	mu      sync.Mutex
	events  []pushed
	offline map[string]bool
}

func (p *recordingPusher) SendToUser(userID string, ev ws.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{UserID: userID, Event: ev})
	return !p.offline[userID]
}

func (p *recordingPusher) ofType(t string) []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushed
	for _, e := range p.events {
		if e.Event.Type == t {
			out = append(out, e)
		}
	}
	return out
}
