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

type TaskController struct {
	db       *gorm.DB
	notifier EventNotifier
}

func NewTaskController(db *gorm.DB, notifier EventNotifier) *TaskController {
	return &TaskController{db: db, notifier: notifier}
}

type CreateTaskInput struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	AssignedTo   string     `json:"assigned_to" binding:"required,uuid"`
	InternshipID *string    `json:"internship_id" binding:"omitempty,uuid"`
	DueDate      *time.Time `json:"due_date"`
}

type SubmitTaskInput struct {
	GithubLink      string `json:"github_link" binding:"required,url"`
	DeploymentLink  string `json:"deployment_link" binding:"required,url"`
	AdditionalNotes string `json:"additional_notes"`
}

type ReviewTaskInput struct {
	Feedback string `json:"feedback"`
}

func (tc *TaskController) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	assignee := uuid.MustParse(input.AssignedTo)
	var student models.User
	if err := tc.db.WithContext(ctx).Select("id", "role").First(&student, "id = ?", assignee).Error; err != nil || student.Role != models.RoleStudent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tasks can only be assigned to students"})
		return
	}

	task := models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		AssignedTo:  assignee,
		AssignedBy:  userID,
		DueDate:     input.DueDate,
		Status:      models.TaskPending,
	}
	if input.InternshipID != nil {
		id := uuid.MustParse(*input.InternshipID)
		task.InternshipID = &id
	}

	if err := tc.db.WithContext(ctx).Omit(clause.Associations).Create(&task).Error; err != nil {
		log.Printf("Create task error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully", "task": task})
}

// Mine: sinh viên xem task được giao, admin/công ty xem task mình giao
func (tc *TaskController) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	column := "assigned_to"
	if c.GetString("role") != string(models.RoleStudent) {
		column = "assigned_by"
	}

	query := tc.db.WithContext(c.Request.Context()).Where(column+" = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []models.Task
	if err := query.Order("due_date ASC NULLS LAST, created_at DESC").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (tc *TaskController) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id", "task")
	if !ok {
		return
	}
	var input SubmitTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	var task models.Task
	if err := tc.db.WithContext(ctx).First(&task, "id = ? AND assigned_to = ?", id, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found or not assigned to you"})
		return
	}
	if task.Status == models.TaskCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task is already completed"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"github_link":      input.GithubLink,
		"deployment_link":  input.DeploymentLink,
		"additional_notes": input.AdditionalNotes,
		"status":           models.TaskSubmitted,
		"submitted_at":     now,
	}
	if err := tc.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit task"})
		return
	}
	task.GithubLink = &input.GithubLink
	task.DeploymentLink = &input.DeploymentLink
	task.Notes = &input.AdditionalNotes
	task.Status = models.TaskSubmitted
	task.SubmittedAt = &now
	c.JSON(http.StatusOK, gin.H{"message": "Task submission successful", "task": task})
}

// reviewable tải task mà user hiện tại được quyền duyệt (người giao hoặc admin).
func (tc *TaskController) reviewable(c *gin.Context) (*models.Task, uuid.UUID, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	id, ok := paramUUID(c, "id", "task")
	if !ok {
		return nil, uuid.Nil, false
	}

	query := tc.db.WithContext(c.Request.Context()).Where("id = ?", id)
	if c.GetString("role") != string(models.RoleAdmin) {
		query = query.Where("assigned_by = ?", userID)
	}
	var task models.Task
	if err := query.First(&task).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return nil, uuid.Nil, false
	}
	return &task, userID, true
}

func (tc *TaskController) review(c *gin.Context, task *models.Task, reviewer uuid.UUID, status models.TaskStatus, feedback string) bool {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      status,
		"feedback_by": reviewer,
		"feedback_at": now,
	}
	if feedback != "" {
		updates["feedback"] = feedback
	}
	if err := tc.db.WithContext(c.Request.Context()).Model(task).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return false
	}
	task.Status = status
	task.FeedbackBy = &reviewer
	task.FeedbackAt = &now
	if feedback != "" {
		task.Feedback = &feedback
	}
	return true
}

func (tc *TaskController) Complete(c *gin.Context) {
	task, reviewer, ok := tc.reviewable(c)
	if !ok {
		return
	}
	var input ReviewTaskInput
	_ = c.ShouldBindJSON(&input)

	if task.Status != models.TaskSubmitted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only submitted tasks can be completed"})
		return
	}
	if !tc.review(c, task, reviewer, models.TaskCompleted, strings.TrimSpace(input.Feedback)) {
		return
	}

	if err := tc.notifier.TaskCompleted(context.WithoutCancel(c.Request.Context()), task.AssignedTo, task.Title); err != nil {
		logNotifyError("task completed", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task marked as completed", "task": task})
}

func (tc *TaskController) Reject(c *gin.Context) {
	task, reviewer, ok := tc.reviewable(c)
	if !ok {
		return
	}
	var input ReviewTaskInput
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Feedback) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Feedback is required"})
		return
	}
	if !tc.review(c, task, reviewer, models.TaskRejected, strings.TrimSpace(input.Feedback)) {
		return
	}

	if err := tc.notifier.TaskRejected(context.WithoutCancel(c.Request.Context()), task.AssignedTo, task.Title); err != nil {
		logNotifyError("task rejected", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task rejected successfully", "task": task})
}
