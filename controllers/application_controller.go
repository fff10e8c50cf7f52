package controllers

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResumeUploader interface {
	UploadResume(fileHeader *multipart.FileHeader, fileID string) (string, error)
	RemoveResume(publicURL string) error
}

const msgAlreadyApplied = "You have already applied for this internship"

type ApplicationController struct {
	db       *gorm.DB
	notifier EventNotifier
	resumes  ResumeUploader
}

func NewApplicationController(db *gorm.DB, notifier EventNotifier, resumes ResumeUploader) *ApplicationController {
	return &ApplicationController{db: db, notifier: notifier, resumes: resumes}
}

// CreateApplicationInput nhận cả JSON lẫn multipart (khi kèm file CV "resume").
type CreateApplicationInput struct {
	InternshipID string `json:"internship_id" form:"internship_id" binding:"required,uuid"`
	CoverLetter  string `json:"cover_letter" form:"cover_letter" binding:"required,min=50"`
	ResumeURL    string `json:"resume_url" form:"resume_url"`
}

type UpdateStatusInput struct {
	Status          string `json:"status" binding:"required"`
	ResponseMessage string `json:"response_message"`
}

func reviewable(status models.ApplicationStatus) bool {
	for _, s := range models.ReviewableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (ac *ApplicationController) Create(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input CreateApplicationInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	internshipID := uuid.MustParse(input.InternshipID)
	ctx := c.Request.Context()

	var internship models.Internship
	if err := ac.db.WithContext(ctx).Preload("Company").First(&internship, "id = ?", internshipID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Internship not found"})
		return
	}
	if internship.Status != models.InternshipPublished {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Internship is not accepting applications"})
		return
	}
	if internship.ApplicationDeadline != nil && internship.ApplicationDeadline.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Application deadline has passed"})
		return
	}

	var existing int64
	if err := ac.db.WithContext(ctx).Model(&models.Application{}).
		Where("internship_id = ? AND student_id = ?", internshipID, studentID).
		Count(&existing).Error; err != nil {
		log.Printf("Check existing application error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgAlreadyApplied})
		return
	}

	app := models.Application{
		ID:           uuid.New(),
		InternshipID: internshipID,
		StudentID:    studentID,
		CoverLetter:  strings.TrimSpace(input.CoverLetter),
		Status:       models.ApplicationPending,
		AppliedAt:    time.Now(),
	}
	if input.ResumeURL != "" {
		app.ResumeURL = &input.ResumeURL
	}

	var uploaded string
	if file, err := c.FormFile("resume"); err == nil {
		if ac.resumes == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Resume upload is not configured"})
			return
		}
		url, err := ac.resumes.UploadResume(file, app.ID.String())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		app.ResumeURL = &url
		uploaded = url
	}

	if err := ac.db.WithContext(ctx).Omit(clause.Associations).Create(&app).Error; err != nil {
		// File đã upload nhưng không có bản ghi nào trỏ tới thì xóa đi
		if uploaded != "" {
			if rmErr := ac.resumes.RemoveResume(uploaded); rmErr != nil {
				log.Printf("Remove orphaned resume %s error: %v", uploaded, rmErr)
			}
		}
		// Hai request nộp cùng lúc: request sau đụng idx_application_student
		if isDuplicateKey(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgAlreadyApplied})
			return
		}
		log.Printf("Create application error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var student models.User
	if err := ac.db.WithContext(ctx).Select("id", "full_name").First(&student, "id = ?", studentID).Error; err == nil {
		if err := ac.notifier.NewApplication(context.WithoutCancel(ctx), internship.Company.UserID, app.ID, student.FullName, internship.Title); err != nil {
			logNotifyError("new application", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted successfully", "application": app})
}

// UpdateStatus: công ty chủ tin cập nhật trạng thái hồ sơ và báo cho sinh viên
func (ac *ApplicationController) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "application")
	if !ok {
		return
	}
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := models.ApplicationStatus(input.Status)
	if !reviewable(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application status"})
		return
	}
	ctx := c.Request.Context()

	var app models.Application
	err := ac.db.WithContext(ctx).
		Preload("Internship.Company").
		Joins("JOIN internships i ON i.id = applications.internship_id").
		Joins("JOIN companies co ON co.id = i.company_id").
		Where("applications.id = ? AND co.user_id = ?", id, userID).
		First(&app).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found or access denied"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":           status,
		"response_message": nil,
		"reviewed_at":      now,
	}
	if msg := strings.TrimSpace(input.ResponseMessage); msg != "" {
		updates["response_message"] = msg
	}
	if err := ac.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", app.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	app.Status = status
	app.ReviewedAt = &now

	if err := ac.notifier.ApplicationStatusChanged(context.WithoutCancel(ctx), app.StudentID, status,
		app.Internship.Title, app.Internship.Company.Name); err != nil {
		logNotifyError("application status", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application status updated successfully", "application": app})
}

func (ac *ApplicationController) Withdraw(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "application")
	if !ok {
		return
	}

	res := ac.db.WithContext(c.Request.Context()).Model(&models.Application{}).
		Where("id = ? AND student_id = ? AND status <> ?", id, studentID, models.ApplicationWithdrawn).
		Update("status", models.ApplicationWithdrawn)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found or access denied"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn successfully"})
}

func (ac *ApplicationController) MyApplications(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	var list []models.Application
	if err := ac.db.WithContext(c.Request.Context()).
		Preload("Internship.Company").
		Where("student_id = ?", studentID).
		Order("applied_at DESC").
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": list})
}

func (ac *ApplicationController) companyApplications(ctx context.Context, userID uuid.UUID, status string) ([]models.Application, error) {
	query := ac.db.WithContext(ctx).
		Preload("Internship").
		Preload("Student").
		Joins("JOIN internships i ON i.id = applications.internship_id").
		Joins("JOIN companies co ON co.id = i.company_id").
		Where("co.user_id = ?", userID)
	if status != "" {
		query = query.Where("applications.status = ?", status)
	}
	var list []models.Application
	err := query.Order("applications.applied_at DESC").Find(&list).Error
	return list, err
}

func (ac *ApplicationController) CompanyApplications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	list, err := ac.companyApplications(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": list})
}

// ExportCompanyApplications xuất hồ sơ ứng tuyển của công ty ra file Excel
func (ac *ApplicationController) ExportCompanyApplications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	list, err := ac.companyApplications(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	buf, err := services.ExportApplications(list)
	if err != nil {
		log.Printf("Export applications error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export applications"})
		return
	}

	filename := fmt.Sprintf("applications-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
