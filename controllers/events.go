package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/services"
)

// EventNotifier là các thông báo nghiệp vụ mà controller phát ra (services.Notifier).
type EventNotifier interface {
	ApplicationStatusChanged(ctx context.Context, studentID uuid.UUID, status models.ApplicationStatus, internshipTitle, companyName string) error
	NewApplication(ctx context.Context, companyUserID, applicationID uuid.UUID, studentName, internshipTitle string) error
	NewInternshipPosting(ctx context.Context, internship *models.Internship, companyName string) (*services.BroadcastResult, error)
	InternshipPublished(ctx context.Context, companyUserID, internshipID uuid.UUID, title string) error
	TaskCompleted(ctx context.Context, userID uuid.UUID, taskTitle string) error
	TaskRejected(ctx context.Context, userID uuid.UUID, taskTitle string) error
	NewMessage(ctx context.Context, recipientID uuid.UUID, senderName, subject string) error
	CourseEnrollment(ctx context.Context, userID uuid.UUID, courseTitle string) error
}
