package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/internship-platform-backend/controllers"
	"github.com/vnkhanh/internship-platform-backend/middleware"
	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/services"
	"github.com/vnkhanh/internship-platform-backend/ws"
)

// Dependencies là các thành phần đã khởi tạo trong main để gắn vào router.
type Dependencies struct {
	DB             *gorm.DB
	Hub            *ws.Hub
	Notifications  *services.NotificationService
	Notifier       *services.Notifier
	Resumes        controllers.ResumeUploader
	GoogleClientID string

	RemindersEnabled bool
}

func SetupRouter(r *gin.Engine, deps Dependencies) *gin.Engine {
	db := deps.DB

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.NewHealthController(db, deps.Hub, deps.RemindersEnabled).HealthCheck)

	// WebSocket tự xác thực bằng ?token=
	r.GET("/ws/notifications", deps.Hub.HandleUserWebSocket)

	api := r.Group("/api")

	authCtrl := controllers.NewAuthController(db, deps.GoogleClientID)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)
		auth.POST("/google", authCtrl.GoogleLogin)
	}

	requireAuth := middleware.AuthMiddleware(db)
	companyOnly := middleware.RequireRoles(models.RoleCompany)
	studentOnly := middleware.RequireRoles(models.RoleStudent)
	reviewers := middleware.RequireRoles(models.RoleCompany, models.RoleAdmin)

	// Thông báo
	notif := controllers.NewNotificationController(deps.Notifications, deps.Notifier)
	api.GET("/notifications/stream", middleware.StreamAuthMiddleware(db), deps.Hub.HandleNotificationStream)
	notifications := api.Group("/notifications", requireAuth)
	{
		notifications.GET("", notif.List)
		notifications.GET("/unread-count", notif.UnreadCount)
		notifications.PUT("/read-all", notif.MarkAllRead)
		notifications.PUT("/:id/read", notif.MarkRead)
		notifications.DELETE("/clear-all", notif.ClearAll)
		notifications.DELETE("/read", notif.DeleteRead)
		notifications.DELETE("/:id", notif.Delete)
		notifications.POST("/announce", middleware.RequireAdmin(), notif.Announce)
	}

	// Tin tuyển dụng
	internshipCtrl := controllers.NewInternshipController(db, deps.Notifier)
	internships := api.Group("/internships")
	{
		internships.GET("", internshipCtrl.List)
		internships.GET("/:id", internshipCtrl.Get)
		internships.POST("", requireAuth, companyOnly, internshipCtrl.Create)
		internships.PUT("/:id/publish", requireAuth, companyOnly, internshipCtrl.Publish)
		internships.PUT("/:id/close", requireAuth, companyOnly, internshipCtrl.Close)
	}

	// Đơn ứng tuyển
	appCtrl := controllers.NewApplicationController(db, deps.Notifier, deps.Resumes)
	applications := api.Group("/applications", requireAuth)
	{
		applications.POST("", studentOnly, appCtrl.Create)
		applications.GET("/my-applications", studentOnly, appCtrl.MyApplications)
		applications.PUT("/:id/withdraw", studentOnly, appCtrl.Withdraw)
		applications.PUT("/:id/status", companyOnly, appCtrl.UpdateStatus)
		applications.GET("/company-applications", companyOnly, appCtrl.CompanyApplications)
		applications.GET("/company-applications/export", companyOnly, appCtrl.ExportCompanyApplications)
	}

	// Nhiệm vụ
	taskCtrl := controllers.NewTaskController(db, deps.Notifier)
	tasks := api.Group("/tasks", requireAuth)
	{
		tasks.GET("", taskCtrl.Mine)
		tasks.POST("", reviewers, taskCtrl.Create)
		tasks.POST("/:id/submit", studentOnly, taskCtrl.Submit)
		tasks.POST("/:id/complete", reviewers, taskCtrl.Complete)
		tasks.POST("/:id/reject", reviewers, taskCtrl.Reject)
	}

	// Tin nhắn
	msgCtrl := controllers.NewMessageController(db, deps.Notifier)
	messages := api.Group("/messages", requireAuth)
	{
		messages.POST("/send", msgCtrl.Send)
		messages.GET("/conversations/:userId", msgCtrl.Conversation)
	}

	// Khóa học
	courseCtrl := controllers.NewCourseController(db, deps.Notifier)
	courses := api.Group("/courses")
	{
		courses.GET("", courseCtrl.List)
		courses.POST("/:id/enroll", requireAuth, studentOnly, courseCtrl.Enroll)
	}

	// Cài đặt thông báo
	prefCtrl := controllers.NewPreferenceController(db)
	prefs := api.Group("/preferences", requireAuth)
	{
		prefs.GET("", prefCtrl.Get)
		prefs.PUT("", prefCtrl.Update)
	}

	return r
}
