package controllers

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/services"
)

// setupTestDB giữ transaction mặc định của gorm để test thấy được Begin/Commit.
func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

// asUser giả lập AuthMiddleware đã xác thực.
func asUser(userID uuid.UUID, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Set("role", string(role))
		c.Next()
	})
	return r
}

type MockEventNotifier struct {
	mock.Mock
}

func (m *MockEventNotifier) ApplicationStatusChanged(ctx context.Context, studentID uuid.UUID, status models.ApplicationStatus, internshipTitle, companyName string) error {
	return m.Called(ctx, studentID, status, internshipTitle, companyName).Error(0)
}

func (m *MockEventNotifier) NewApplication(ctx context.Context, companyUserID, applicationID uuid.UUID, studentName, internshipTitle string) error {
	return m.Called(ctx, companyUserID, applicationID, studentName, internshipTitle).Error(0)
}

func (m *MockEventNotifier) NewInternshipPosting(ctx context.Context, internship *models.Internship, companyName string) (*services.BroadcastResult, error) {
	args := m.Called(ctx, internship, companyName)
	res, _ := args.Get(0).(*services.BroadcastResult)
	return res, args.Error(1)
}

func (m *MockEventNotifier) InternshipPublished(ctx context.Context, companyUserID, internshipID uuid.UUID, title string) error {
	return m.Called(ctx, companyUserID, internshipID, title).Error(0)
}

func (m *MockEventNotifier) TaskCompleted(ctx context.Context, userID uuid.UUID, taskTitle string) error {
	return m.Called(ctx, userID, taskTitle).Error(0)
}

func (m *MockEventNotifier) TaskRejected(ctx context.Context, userID uuid.UUID, taskTitle string) error {
	return m.Called(ctx, userID, taskTitle).Error(0)
}

func (m *MockEventNotifier) NewMessage(ctx context.Context, recipientID uuid.UUID, senderName, subject string) error {
	return m.Called(ctx, recipientID, senderName, subject).Error(0)
}

func (m *MockEventNotifier) CourseEnrollment(ctx context.Context, userID uuid.UUID, courseTitle string) error {
	return m.Called(ctx, userID, courseTitle).Error(0)
}

type MockResumeUploader struct {
	mock.Mock
}

func (m *MockResumeUploader) UploadResume(fileHeader *multipart.FileHeader, fileID string) (string, error) {
	args := m.Called(fileHeader, fileID)
	return args.String(0), args.Error(1)
}

func (m *MockResumeUploader) RemoveResume(publicURL string) error {
	return m.Called(publicURL).Error(0)
}
