package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/internship-platform-backend/models"
)

type InternshipController struct {
	db       *gorm.DB
	notifier EventNotifier
}

func NewInternshipController(db *gorm.DB, notifier EventNotifier) *InternshipController {
	return &InternshipController{db: db, notifier: notifier}
}

type InternshipInput struct {
	Title               string     `json:"title" binding:"required"`
	Description         string     `json:"description" binding:"required"`
	Field               string     `json:"field"`
	RequiredSkills      string     `json:"required_skills"`
	Location            string     `json:"location"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
}

// makeSlug ghép slug tiêu đề với 8 ký tự ngẫu nhiên để không trùng.
func makeSlug(title string) string {
	return fmt.Sprintf("%s-%s", slug.Make(title), uuid.NewString()[:8])
}

// Danh sách tin thực tập đã đăng
func (ic *InternshipController) List(c *gin.Context) {
	page, ok := queryInt(c, "page", 1, 1, 0)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Page must be a positive integer"})
		return
	}
	limit, ok := queryInt(c, "limit", 10, 1, 50)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 50"})
		return
	}

	query := ic.db.WithContext(c.Request.Context()).Model(&models.Internship{}).
		Where("status = ?", models.InternshipPublished)
	if field := strings.TrimSpace(c.Query("field")); field != "" {
		query = query.Where("field ILIKE ?", "%"+field+"%")
	}
	if location := strings.TrimSpace(c.Query("location")); location != "" {
		query = query.Where("location ILIKE ?", "%"+location+"%")
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("title ILIKE ? OR description ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch internships"})
		return
	}

	var list []models.Internship
	if err := query.Preload("Company").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch internships"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"internships": list,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// Get nhận id hoặc slug
func (ic *InternshipController) Get(c *gin.Context) {
	key := c.Param("id")
	query := ic.db.WithContext(c.Request.Context()).Preload("Company")

	var internship models.Internship
	var err error
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		err = query.First(&internship, "id = ?", id).Error
	} else {
		err = query.First(&internship, "slug = ?", key).Error
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Internship not found"})
		return
	}
	c.JSON(http.StatusOK, internship)
}

func (ic *InternshipController) companyOf(c *gin.Context, userID uuid.UUID) (*models.Company, bool) {
	var company models.Company
	if err := ic.db.WithContext(c.Request.Context()).First(&company, "user_id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company profile not found"})
		return nil, false
	}
	return &company, true
}

func (ic *InternshipController) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input InternshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	company, ok := ic.companyOf(c, userID)
	if !ok {
		return
	}

	internship := models.Internship{
		CompanyID:           company.ID,
		Title:               strings.TrimSpace(input.Title),
		Slug:                makeSlug(input.Title),
		Description:         input.Description,
		Field:               input.Field,
		RequiredSkills:      input.RequiredSkills,
		Status:              models.InternshipDraft,
		ApplicationDeadline: input.ApplicationDeadline,
	}
	if input.Location != "" {
		internship.Location = &input.Location
	}

	if err := ic.db.WithContext(c.Request.Context()).Omit("Company").Create(&internship).Error; err != nil {
		log.Printf("Create internship error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create internship"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Internship created successfully", "internship": internship})
}

// ownedInternship tải tin thực tập thuộc công ty của user hiện tại.
func (ic *InternshipController) ownedInternship(c *gin.Context) (*models.Internship, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	id, ok := paramUUID(c, "id", "internship")
	if !ok {
		return nil, false
	}

	var internship models.Internship
	err := ic.db.WithContext(c.Request.Context()).
		Joins("Company").
		Where(`internships.id = ? AND "Company".user_id = ?`, id, userID).
		First(&internship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Internship not found or access denied"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load internship"})
		return nil, false
	}
	return &internship, true
}

func (ic *InternshipController) setStatus(c *gin.Context, in *models.Internship, status models.InternshipStatus) bool {
	if err := ic.db.WithContext(c.Request.Context()).Model(&models.Internship{}).
		Where("id = ?", in.ID).
		Update("status", status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update internship"})
		return false
	}
	in.Status = status
	return true
}

// Publish đăng tin, báo cho công ty và các sinh viên phù hợp
func (ic *InternshipController) Publish(c *gin.Context) {
	internship, ok := ic.ownedInternship(c)
	if !ok {
		return
	}
	if internship.Status == models.InternshipPublished {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Internship is already published"})
		return
	}
	if internship.ApplicationDeadline != nil && internship.ApplicationDeadline.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Application deadline has passed"})
		return
	}
	if !ic.setStatus(c, internship, models.InternshipPublished) {
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	if err := ic.notifier.InternshipPublished(ctx, internship.Company.UserID, internship.ID, internship.Title); err != nil {
		logNotifyError("internship published", err)
	}
	published := *internship
	notifyAsync("new internship posting", func(ctx context.Context) error {
		res, err := ic.notifier.NewInternshipPosting(ctx, &published, published.Company.Name)
		if err == nil && res != nil {
			log.Printf("New internship %s: notified %d/%d students", published.ID, res.Sent, res.Recipients)
		}
		return err
	})

	c.JSON(http.StatusOK, gin.H{"message": "Internship published successfully", "internship": internship})
}

func (ic *InternshipController) Close(c *gin.Context) {
	internship, ok := ic.ownedInternship(c)
	if !ok {
		return
	}
	if !ic.setStatus(c, internship, models.InternshipClosed) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Internship closed", "internship": internship})
}
