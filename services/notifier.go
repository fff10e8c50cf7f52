package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/vnkhanh/internship-platform-backend/models"
)

// Sender là phần ghi của NotificationService mà Notifier cần.
type Sender interface {
	Send(ctx context.Context, in SendInput) (*models.Notification, error)
	SendMany(ctx context.Context, ids []uuid.UUID, tmpl Template) *BroadcastResult
	Broadcast(ctx context.Context, role models.UserRole, tmpl Template) (*BroadcastResult, error)
}

// Notifier dựng nội dung thông báo cho các sự kiện nghiệp vụ.
type Notifier struct {
	sender    Sender
	directory DirectoryStore
}

func NewNotifier(sender Sender, directory DirectoryStore) *Notifier {
	return &Notifier{sender: sender, directory: directory}
}

func (n *Notifier) send(ctx context.Context, userID uuid.UUID, t Template) error {
	_, err := n.sender.Send(ctx, t.For(userID))
	if errors.Is(err, ErrMuted) {
		return nil
	}
	return err
}

func (n *Notifier) ApplicationStatusChanged(ctx context.Context, studentID uuid.UUID, status models.ApplicationStatus, internshipTitle, companyName string) error {
	t := Template{
		Type:      models.NotificationInfo,
		ActionURL: "/applications",
		Category:  CategoryApplication,
	}
	switch status {
	case models.ApplicationAccepted:
		t.Title = "Application Accepted! 🎉"
		t.Message = fmt.Sprintf("Congratulations! Your application for \"%s\" at %s has been accepted.", internshipTitle, companyName)
		t.Type = models.NotificationSuccess
	case models.ApplicationRejected:
		t.Title = "Application Update"
		t.Message = fmt.Sprintf("Your application for \"%s\" at %s was not selected this time. Keep applying!", internshipTitle, companyName)
	case models.ApplicationShortlisted:
		t.Title = "You've been shortlisted! ⭐"
		t.Message = fmt.Sprintf("Great news! You've been shortlisted for \"%s\" at %s.", internshipTitle, companyName)
		t.Type = models.NotificationSuccess
	case models.ApplicationInterviewScheduled:
		t.Title = "Interview Scheduled 📅"
		t.Message = fmt.Sprintf("Your interview for \"%s\" at %s has been scheduled.", internshipTitle, companyName)
	default:
		t.Title = "Application Status Update"
		t.Message = fmt.Sprintf("Your application status for \"%s\" at %s has been updated to %s.", internshipTitle, companyName, status)
	}
	return n.send(ctx, studentID, t)
}

func (n *Notifier) NewApplication(ctx context.Context, companyUserID, applicationID uuid.UUID, studentName, internshipTitle string) error {
	return n.send(ctx, companyUserID, Template{
		Title:     "New Application Received! 📝",
		Message:   fmt.Sprintf("%s has applied for \"%s\". Review their application now.", studentName, internshipTitle),
		Type:      models.NotificationInfo,
		ActionURL: "/applications?highlight=" + applicationID.String(),
		Category:  CategoryApplication,
	})
}

// NewInternshipPosting báo cho sinh viên phù hợp; không ai khớp thì gửi cho mọi sinh viên.
func (n *Notifier) NewInternshipPosting(ctx context.Context, internship *models.Internship, companyName string) (*BroadcastResult, error) {
	ids, err := n.directory.MatchingStudents(ctx, internship)
	if err != nil {
		return nil, fmt.Errorf("match students: %w", err)
	}
	if len(ids) > 0 {
		return n.sender.SendMany(ctx, ids, Template{
			Title:     "New Internship Opportunity! 🚀",
			Message:   fmt.Sprintf("A new internship \"%s\" has been posted by %s. Check it out!", internship.Title, companyName),
			Type:      models.NotificationInfo,
			ActionURL: "/internships",
		}), nil
	}
	return n.sender.Broadcast(ctx, models.RoleStudent, Template{
		Title:     "New Internship Posted! 🚀",
		Message:   fmt.Sprintf("%s has posted a new internship: \"%s\". Check it out!", companyName, internship.Title),
		Type:      models.NotificationInfo,
		ActionURL: "/internships",
	})
}

func (n *Notifier) InternshipPublished(ctx context.Context, companyUserID, internshipID uuid.UUID, title string) error {
	return n.send(ctx, companyUserID, Template{
		Title:     "Internship Published Successfully! ✅",
		Message:   fmt.Sprintf("Your internship \"%s\" has been published and is now visible to students.", title),
		Type:      models.NotificationSuccess,
		ActionURL: "/my-internships?highlight=" + internshipID.String(),
	})
}

func (n *Notifier) TaskDeadlineReminder(ctx context.Context, userID uuid.UUID, taskTitle string, daysLeft int) error {
	t := Template{ActionURL: "/tasks", Category: CategoryTask, Type: models.NotificationWarning}
	switch {
	case daysLeft <= 0:
		t.Title = "Task Overdue! ⚠️"
		t.Message = fmt.Sprintf("Your task \"%s\" is overdue. Please complete it as soon as possible.", taskTitle)
		t.Type = models.NotificationError
	case daysLeft == 1:
		t.Title = "Task Due Tomorrow! ⏰"
		t.Message = fmt.Sprintf("Your task \"%s\" is due tomorrow. Don't forget to complete it!", taskTitle)
	default:
		t.Title = "Task Deadline Reminder 📅"
		t.Message = fmt.Sprintf("Your task \"%s\" is due in %d days.", taskTitle, daysLeft)
	}
	return n.send(ctx, userID, t)
}

func (n *Notifier) TaskCompleted(ctx context.Context, userID uuid.UUID, taskTitle string) error {
	return n.send(ctx, userID, Template{
		Title:     "Task Completed! ✅",
		Message:   fmt.Sprintf("Congratulations! You have successfully completed \"%s\".", taskTitle),
		Type:      models.NotificationSuccess,
		ActionURL: "/tasks",
		Category:  CategoryTask,
	})
}

func (n *Notifier) TaskRejected(ctx context.Context, userID uuid.UUID, taskTitle string) error {
	return n.send(ctx, userID, Template{
		Title:     "Task Submission Rejected ⚠️",
		Message:   fmt.Sprintf("Your submission for \"%s\" has been rejected. Please review the feedback and resubmit.", taskTitle),
		Type:      models.NotificationWarning,
		ActionURL: "/tasks",
		Category:  CategoryTask,
	})
}

func (n *Notifier) NewMessage(ctx context.Context, recipientID uuid.UUID, senderName, subject string) error {
	msg := senderName + " sent you a message"
	if subject != "" {
		msg = fmt.Sprintf("%s sent you a message: \"%s\"", senderName, subject)
	}
	return n.send(ctx, recipientID, Template{
		Title:     "New Message 💬",
		Message:   msg,
		Type:      models.NotificationInfo,
		ActionURL: "/messages",
		Category:  CategoryMessage,
	})
}

func (n *Notifier) CourseEnrollment(ctx context.Context, userID uuid.UUID, courseTitle string) error {
	return n.send(ctx, userID, Template{
		Title:     "Course Enrollment Successful! 📚",
		Message:   fmt.Sprintf("You have successfully enrolled in \"%s\". Start learning now!", courseTitle),
		Type:      models.NotificationSuccess,
		ActionURL: "/learning",
	})
}

func (n *Notifier) InternshipDeadlineApproaching(ctx context.Context, companyUserID, internshipID uuid.UUID, title string, daysLeft int) error {
	t := Template{
		Type:      models.NotificationInfo,
		ActionURL: "/my-internships?highlight=" + internshipID.String(),
		Category:  CategoryApplication,
	}
	switch {
	case daysLeft <= 1:
		t.Type = models.NotificationError
	case daysLeft <= 3:
		t.Type = models.NotificationWarning
	}
	switch {
	case daysLeft <= 0:
		t.Title = "Internship Deadline Passed! ⚠️"
		t.Message = fmt.Sprintf("The application deadline for \"%s\" has passed. Consider extending or closing applications.", title)
	case daysLeft == 1:
		t.Title = "Internship Deadline Tomorrow! ⏰"
		t.Message = fmt.Sprintf("The application deadline for \"%s\" is tomorrow.", title)
	default:
		t.Title = "Internship Deadline Reminder 📅"
		t.Message = fmt.Sprintf("The application deadline for \"%s\" is in %d days.", title, daysLeft)
	}
	return n.send(ctx, companyUserID, t)
}

func (n *Notifier) LowApplicationCount(ctx context.Context, companyUserID, internshipID uuid.UUID, title string, count int64, daysActive int) error {
	return n.send(ctx, companyUserID, Template{
		Title: "Low Application Count 📊",
		Message: fmt.Sprintf("Your internship \"%s\" has only received %d applications in %d days. Consider reviewing the job description or requirements.",
			title, count, daysActive),
		Type:      models.NotificationWarning,
		ActionURL: "/my-internships?highlight=" + internshipID.String(),
		Category:  CategoryApplication,
	})
}

func (n *Notifier) PendingApplicationReminder(ctx context.Context, companyUserID, applicationID uuid.UUID, studentName, internshipTitle string, daysPending int) error {
	return n.send(ctx, companyUserID, Template{
		Title: "Pending Application Reminder 🔔",
		Message: fmt.Sprintf("%s's application for \"%s\" has been pending for %d days. Consider reviewing it soon.",
			studentName, internshipTitle, daysPending),
		Type:      models.NotificationWarning,
		ActionURL: "/applications?highlight=" + applicationID.String(),
		Category:  CategoryApplication,
	})
}

// SystemAnnouncement gửi cho một role, hoặc lần lượt mọi role khi role rỗng.
func (n *Notifier) SystemAnnouncement(ctx context.Context, title, message string, role models.UserRole, actionURL string) (*BroadcastResult, error) {
	t := Template{
		Title:     title,
		Message:   message,
		Type:      models.NotificationInfo,
		ActionURL: actionURL,
	}
	roles := models.AllRoles
	if role != "" {
		roles = []models.UserRole{role}
	}

	total := &BroadcastResult{}
	for _, r := range roles {
		res, err := n.sender.Broadcast(ctx, r, t)
		if err != nil {
			log.Printf("thông báo hệ thống tới role %s lỗi: %v", r, err)
			total.Errors = append(total.Errors, err.Error())
			continue
		}
		total.Recipients += res.Recipients
		total.Sent += res.Sent
		total.Muted += res.Muted
		total.Failed += res.Failed
		total.Errors = append(total.Errors, res.Errors...)
	}
	if total.Recipients == 0 && len(total.Errors) > 0 {
		return total, errors.New(total.Errors[0])
	}
	return total, nil
}
