package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/internship-platform-backend/models"
)

type MessageController struct {
	db       *gorm.DB
	notifier EventNotifier
}

func NewMessageController(db *gorm.DB, notifier EventNotifier) *MessageController {
	return &MessageController{db: db, notifier: notifier}
}

type SendMessageInput struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Subject     string `json:"subject"`
	Content     string `json:"content" binding:"required"`
}

func (mc *MessageController) Send(c *gin.Context) {
	senderID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recipientID := uuid.MustParse(input.RecipientID)
	if recipientID == senderID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send a message to yourself"})
		return
	}
	ctx := c.Request.Context()

	var users []models.User
	if err := mc.db.WithContext(ctx).Select("id", "full_name").
		Where("id IN ?", []uuid.UUID{senderID, recipientID}).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	senderName := ""
	recipientFound := false
	for _, u := range users {
		switch u.ID {
		case senderID:
			senderName = u.FullName
		case recipientID:
			recipientFound = true
		}
	}
	if !recipientFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
		return
	}

	msg := models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     strings.TrimSpace(input.Content),
	}
	subject := strings.TrimSpace(input.Subject)
	if subject != "" {
		msg.Subject = &subject
	}
	if err := mc.db.WithContext(ctx).Omit(clause.Associations).Create(&msg).Error; err != nil {
		log.Printf("Send message error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if err := mc.notifier.NewMessage(context.WithoutCancel(ctx), recipientID, senderName, subject); err != nil {
		logNotifyError("new message", err)
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "data": msg})
}

// Conversation trả về tin nhắn giữa hai người và đánh dấu đã đọc các tin gửi tới mình
func (mc *MessageController) Conversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := paramUUID(c, "userId", "user")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var messages []models.Message
	if err := mc.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
		return
	}

	if err := mc.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read_at IS NULL", otherID, userID).
		Update("read_at", time.Now()).Error; err != nil {
		log.Printf("Mark messages read error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
