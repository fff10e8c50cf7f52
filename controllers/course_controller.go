package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/internship-platform-backend/models"
)

type CourseController struct {
	db       *gorm.DB
	notifier EventNotifier
}

func NewCourseController(db *gorm.DB, notifier EventNotifier) *CourseController {
	return &CourseController{db: db, notifier: notifier}
}

func (cc *CourseController) List(c *gin.Context) {
	var courses []models.Course
	if err := cc.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (cc *CourseController) Enroll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := paramUUID(c, "id", "course")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var course models.Course
	if err := cc.db.WithContext(ctx).First(&course, "id = ? AND is_active = ?", courseID, true).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	enrollment := models.Enrollment{CourseID: course.ID, UserID: userID}
	res := cc.db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already enrolled in this course"})
		return
	}

	if err := cc.notifier.CourseEnrollment(context.WithoutCancel(ctx), userID, course.Title); err != nil {
		logNotifyError("course enrollment", err)
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Enrolled successfully", "enrollment": enrollment})
}
