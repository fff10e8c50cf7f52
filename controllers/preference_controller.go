package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/internship-platform-backend/models"
)

type PreferenceController struct {
	db *gorm.DB
}

func NewPreferenceController(db *gorm.DB) *PreferenceController {
	return &PreferenceController{db: db}
}

// PreferencesInput dùng con trỏ để chỉ cập nhật các trường được gửi lên.
type PreferencesInput struct {
	EmailNotifications   *bool `json:"email_notifications"`
	PushNotifications    *bool `json:"push_notifications"`
	TaskReminders        *bool `json:"task_reminders"`
	ApplicationUpdates   *bool `json:"application_updates"`
	MessageNotifications *bool `json:"message_notifications"`
}

func (in PreferencesInput) updates() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(col string, v *bool) {
		if v != nil {
			out[col] = *v
		}
	}
	set("email_notifications", in.EmailNotifications)
	set("push_notifications", in.PushNotifications)
	set("task_reminders", in.TaskReminders)
	set("application_updates", in.ApplicationUpdates)
	set("message_notifications", in.MessageNotifications)
	return out
}

func (pc *PreferenceController) load(c *gin.Context, userID uuid.UUID) (*models.UserPreferences, bool) {
	prefs := models.DefaultPreferences(userID)
	if err := pc.db.WithContext(c.Request.Context()).
		Omit("User").
		Where(models.UserPreferences{UserID: userID}).
		FirstOrCreate(&prefs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load preferences"})
		return nil, false
	}
	return &prefs, true
}

func (pc *PreferenceController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	prefs, ok := pc.load(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

func (pc *PreferenceController) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input PreferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := input.updates()
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No preferences provided"})
		return
	}

	prefs, ok := pc.load(c, userID)
	if !ok {
		return
	}
	if err := pc.db.WithContext(c.Request.Context()).Model(&models.UserPreferences{}).
		Where("id = ?", prefs.ID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	prefs, ok = pc.load(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated successfully", "preferences": prefs})
}
