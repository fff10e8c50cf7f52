package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/ws"
)

// Pusher đẩy sự kiện realtime tới kết nối đang mở của user (ws.Hub hoặc ws.RedisFanout).
type Pusher interface {
	SendToUser(userID string, ev ws.Event) bool
}

type Mailer interface {
	Send(to []string, subject, html string) error
}

type SendInput struct {
	UserID    uuid.UUID
	Title     string
	Message   string
	Type      models.NotificationType
	ActionURL string
	Category  Category
}

type Template struct {
	Title     string
	Message   string
	Type      models.NotificationType
	ActionURL string
	Category  Category
}

func (t Template) For(userID uuid.UUID) SendInput {
	return SendInput{
		UserID:    userID,
		Title:     t.Title,
		Message:   t.Message,
		Type:      t.Type,
		ActionURL: t.ActionURL,
		Category:  t.Category,
	}
}

type BroadcastResult struct {
	Recipients int      `json:"recipients"`
	Sent       int      `json:"sent"`
	Muted      int      `json:"muted"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
}

// pushedNotification là bản ghi kèm timestamp gửi đi qua stream.
type pushedNotification struct {
	models.Notification
	Timestamp int64 `json:"timestamp"`
}

type NotificationService struct {
	store     NotificationStore
	directory DirectoryStore
	pusher    Pusher
	mailer    Mailer
	now       func() time.Time
}

func NewNotificationService(store NotificationStore, directory DirectoryStore, pusher Pusher) *NotificationService {
	return &NotificationService{
		store:     store,
		directory: directory,
		pusher:    pusher,
		now:       time.Now,
	}
}

// WithMailer bật gửi bản sao email cho người dùng đã bật email_notifications.
func (s *NotificationService) WithMailer(m Mailer) *NotificationService {
	s.mailer = m
	return s
}

func (s *NotificationService) normalize(in *SendInput) error {
	if in.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Title == "" || in.Message == "" {
		return fmt.Errorf("%w: title and message are required", ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = models.NotificationInfo
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	if in.Category == "" {
		in.Category = CategoryGeneral
	}
	return nil
}

// Send lưu thông báo rồi đẩy realtime. Lỗi đẩy chỉ được ghi log, lỗi lưu thì trả về.
func (s *NotificationService) Send(ctx context.Context, in SendInput) (*models.Notification, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	var rec *Recipient
	if s.directory != nil {
		r, err := s.directory.Recipient(ctx, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("load recipient: %w", err)
		}
		rec = r
	}
	if rec != nil && !rec.Allows(in.Category) {
		return nil, ErrMuted
	}

	n := &models.Notification{
		UserID:  in.UserID,
		Title:   in.Title,
		Message: in.Message,
		Type:    in.Type,
	}
	if in.ActionURL != "" {
		url := in.ActionURL
		n.ActionURL = &url
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if rec == nil || rec.PushNotifications {
		s.push(n)
	}
	if rec != nil && rec.EmailNotifications && rec.Email != "" && s.mailer != nil {
		go s.mail(rec, n)
	}
	return n, nil
}

func (s *NotificationService) push(n *models.Notification) {
	if s.pusher == nil {
		return
	}
	ev := ws.Event{
		Type: ws.EventNotification,
		Notification: pushedNotification{
			Notification: *n,
			Timestamp:    s.now().UnixMilli(),
		},
	}
	if !s.pusher.SendToUser(n.UserID.String(), ev) {
		log.Printf("notification %s: user %s không online, chỉ lưu DB", n.ID, n.UserID)
	}
}

func (s *NotificationService) mail(rec *Recipient, n *models.Notification) {
	body := fmt.Sprintf("<p>Xin chào %s,</p><h3>%s</h3><p>%s</p>", rec.FullName, n.Title, n.Message)
	if n.ActionURL != nil {
		body += fmt.Sprintf(`<p><a href="%s">Xem chi tiết</a></p>`, *n.ActionURL)
	}
	if err := s.mailer.Send([]string{rec.Email}, n.Title, body); err != nil {
		log.Printf("gửi email thông báo %s thất bại: %v", n.ID, err)
	}
}

// Broadcast gửi lần lượt cho từng user của role; lỗi của một người không chặn người khác.
func (s *NotificationService) Broadcast(ctx context.Context, role models.UserRole, tmpl Template) (*BroadcastResult, error) {
	ids, err := s.directory.UserIDsByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list %s users: %w", role, err)
	}
	return s.SendMany(ctx, ids, tmpl), nil
}

func (s *NotificationService) SendMany(ctx context.Context, ids []uuid.UUID, tmpl Template) *BroadcastResult {
	res := &BroadcastResult{Recipients: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			res.Failed += len(ids) - res.Sent - res.Muted - res.Failed
			res.Errors = append(res.Errors, ctx.Err().Error())
			break
		}
		_, err := s.Send(ctx, tmpl.For(id))
		switch {
		case err == nil:
			res.Sent++
		case errors.Is(err, ErrMuted):
			res.Muted++
		default:
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", id, err))
			log.Printf("broadcast tới %s lỗi: %v", id, err)
		}
	}
	return res
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, q ListQuery) (*NotificationPage, error) {
	q = q.Normalize()
	list, total, err := s.store.List(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	pages := (total + int64(q.Limit) - 1) / int64(q.Limit)
	return &NotificationPage{
		Notifications: list,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: pages,
		},
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	n, err := s.store.MarkRead(ctx, userID, id, s.now())
	if err != nil {
		return nil, err
	}
	s.pushUnreadCount(ctx, userID)
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.store.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	s.sendBadge(userID, 0)
	return updated, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.pushUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.store.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.sendBadge(userID, 0)
	return deleted, nil
}

func (s *NotificationService) DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.store.DeleteRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushUnreadCount(ctx, userID)
	return deleted, nil
}

// Cập nhật badge realtime sau khi đọc/xoá
func (s *NotificationService) pushUnreadCount(ctx context.Context, userID uuid.UUID) {
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		log.Printf("đếm thông báo chưa đọc của %s lỗi: %v", userID, err)
		return
	}
	s.sendBadge(userID, count)
}

func (s *NotificationService) sendBadge(userID uuid.UUID, count int64) {
	if s.pusher == nil {
		return
	}
	s.pusher.SendToUser(userID.String(), ws.UnreadCountEvent(count))
}
