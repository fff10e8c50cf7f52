package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/services"
)

type NotificationReader interface {
	List(ctx context.Context, userID uuid.UUID, q services.ListQuery) (*services.NotificationPage, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ClearAll(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Announcer interface {
	SystemAnnouncement(ctx context.Context, title, message string, role models.UserRole, actionURL string) (*services.BroadcastResult, error)
}

type NotificationController struct {
	notifications NotificationReader
	announcer     Announcer
}

func NewNotificationController(notifications NotificationReader, announcer Announcer) *NotificationController {
	return &NotificationController{notifications: notifications, announcer: announcer}
}

func logNotifyError(what string, err error) {
	log.Printf("Gửi thông báo %s thất bại: %v", what, err)
}

// Danh sách thông báo (phân trang, có thể lọc chưa đọc)
func (nc *NotificationController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, ok := queryInt(c, "page", 1, 1, 0)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Page must be a positive integer"})
		return
	}
	limit, ok := queryInt(c, "limit", 20, 1, 50)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 50"})
		return
	}
	unreadOnly := false
	if raw := c.Query("unread_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unread_only must be a boolean"})
			return
		}
		unreadOnly = v
	}

	result, err := nc.notifications.List(c.Request.Context(), userID, services.ListQuery{
		Page:       page,
		Limit:      limit,
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		log.Printf("Get notifications error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Đếm số thông báo chưa đọc
func (nc *NotificationController) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	count, err := nc.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// Đánh dấu đã đọc; lần gọi thứ hai trả 404
func (nc *NotificationController) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "notification")
	if !ok {
		return
	}

	n, err := nc.notifications.MarkRead(c.Request.Context(), userID, id)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found or already read"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read", "notification": n})
}

func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	updated, err := nc.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark all read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updatedCount": updated})
}

// Xóa một thông báo của chính user
func (nc *NotificationController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "notification")
	if !ok {
		return
	}

	err := nc.notifications.Delete(c.Request.Context(), userID, id)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// Xóa tất cả thông báo của user
func (nc *NotificationController) ClearAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	deleted, err := nc.notifications.ClearAll(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications cleared", "deletedCount": deleted})
}

// Xóa tất cả thông báo đã đọc, giữ lại chưa đọc
func (nc *NotificationController) DeleteRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	deleted, err := nc.notifications.DeleteRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete read notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All read notifications deleted successfully", "deletedCount": deleted})
}

type AnnouncementInput struct {
	Title      string `json:"title" binding:"required"`
	Message    string `json:"message" binding:"required"`
	TargetRole string `json:"target_role"`
	ActionURL  string `json:"action_url"`
}

// Announce gửi thông báo hệ thống (admin)
func (nc *NotificationController) Announce(c *gin.Context) {
	var input AnnouncementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := models.UserRole(input.TargetRole)
	if role != "" && !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_role must be student, company or admin"})
		return
	}

	res, err := nc.announcer.SystemAnnouncement(c.Request.Context(), input.Title, input.Message, role, input.ActionURL)
	if err != nil {
		log.Printf("System announcement error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send announcement"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Announcement sent", "result": res})
}
