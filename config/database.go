package config

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/internship-platform-backend/models"
)

func InitDB(cfg *Config) (*gorm.DB, error) {
	// Production chỉ log cảnh báo SQL trừ khi bật DEBUG_SQL=true.
	logLevel := logger.Info
	if cfg.IsProduction() && !cfg.Database.DebugSQL {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logLevel,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// Connection Pooling config
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Second)

	return db, nil
}

// Migrate tạo/cập nhật bảng cho toàn bộ models.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserPreferences{},
		&models.Company{},
		&models.Internship{},
		&models.Application{},
		&models.Task{},
		&models.Course{},
		&models.Enrollment{},
		&models.Message{},
		&models.Notification{},
		&models.ReminderLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Println("postgreSQL connected & migrated successfully!")
	return nil
}
