package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/internship-platform-backend/config"
	"github.com/vnkhanh/internship-platform-backend/controllers"
	"github.com/vnkhanh/internship-platform-backend/routes"
	"github.com/vnkhanh/internship-platform-backend/services"
	"github.com/vnkhanh/internship-platform-backend/utils"
	"github.com/vnkhanh/internship-platform-backend/ws"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	cfg := config.Load()
	if logFile, _ := config.InitLogging(); logFile != nil {
		defer logFile.Close()
	}
	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET chưa được đặt")
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Kết nối database thất bại: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatalf("Migrate thất bại: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Registry kết nối realtime
	hub := ws.NewHub(cfg.Notification.HeartbeatInterval, cfg.Notification.ClientBuffer)
	go hub.Run(ctx)

	var pusher services.Pusher = hub
	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Kết nối Redis thất bại: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
		fanout := ws.NewRedisFanout(rdb, cfg.Redis.Channel, hub)
		go fanout.Run(ctx)
		pusher = fanout
		log.Printf("Push thông báo qua Redis channel %q", cfg.Redis.Channel)
	}

	notificationRepo := services.NewNotificationRepository(db)
	directory := services.NewDirectoryRepository(db)
	reminderRepo := services.NewReminderRepository(db)

	notifications := services.NewNotificationService(notificationRepo, directory, pusher)
	if mailer := utils.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.SkipTLSVerify); mailer != nil {
		notifications.WithMailer(mailer)
	}
	notifier := services.NewNotifier(notifications, directory)

	var resumes controllers.ResumeUploader
	if storage := utils.NewResumeStorage(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket); storage != nil {
		resumes = storage
	}

	scheduler := services.NewScheduler(services.CleanupJob(notificationRepo, reminderRepo, cfg.Notification.RetentionDays))
	if cfg.Notification.RemindersEnabled {
		reminders := services.NewReminderService(reminderRepo, notifier, cfg.Notification.SweepTimeout)
		scheduler.Add(reminders.Jobs(cfg.Notification)...)
	} else {
		log.Println("Reminder sweeps disabled (REMINDERS_ENABLED=false)")
	}
	scheduler.Start(ctx)

	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	//Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r = routes.SetupRouter(r, routes.Dependencies{
		DB:             db,
		Hub:            hub,
		Notifications:  notifications,
		Notifier:       notifier,
		Resumes:        resumes,
		GoogleClientID: cfg.GoogleClientID,

		RemindersEnabled: cfg.Notification.RemindersEnabled,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("Server running at Port:" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server lỗi: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Đang tắt server...")

	// Đóng stream trước, nếu không Shutdown sẽ chờ các kết nối SSE mãi
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown lỗi: %v", err)
	}
	scheduler.Wait()
	log.Println("Server stopped")
}
