package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/internship-platform-backend/ws"
)

type StatsProvider interface {
	Stats() ws.HubStats
}

type HealthController struct {
	db               *gorm.DB
	hub              StatsProvider
	remindersEnabled bool
}

func NewHealthController(db *gorm.DB, hub StatsProvider, remindersEnabled bool) *HealthController {
	return &HealthController{db: db, hub: hub, remindersEnabled: remindersEnabled}
}

func (h *HealthController) HealthCheck(c *gin.Context) {
	// Mặc định trạng thái OK
	response := gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Unix(),
		"db":        "ok",
		"notifications": gin.H{
			"reminders": h.remindersEnabled,
			"stats":     h.hub.Stats(),
		},
	}

	// Thử ping database
	sqlDB, err := h.db.DB()
	if err != nil {
		response["db"] = "error: cannot get DB instance"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		response["db"] = "error: cannot connect to DB"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
