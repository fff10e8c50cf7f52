package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config gom toàn bộ cấu hình đọc từ biến môi trường (.env được nạp trước trong main).
type Config struct {
	Port        string
	GinMode     string
	Environment string
	ClientURL   string
	JWTSecret   string

	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Supabase SupabaseConfig

	GoogleClientID string

	Notification NotificationConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	DebugSQL bool
}

type RedisConfig struct {
	URL     string
	Channel string
}

type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	From          string
	SkipTLSVerify bool
}

type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
}

// NotificationConfig điều khiển luồng đẩy realtime và các đợt quét nhắc nhở.
type NotificationConfig struct {
	HeartbeatInterval time.Duration
	ClientBuffer      int

	TaskDeadlineInterval       time.Duration
	InternshipDeadlineInterval time.Duration
	PendingApplicationInterval time.Duration
	LowApplicationInterval     time.Duration
	StartupStagger             time.Duration
	SweepTimeout               time.Duration
	RemindersEnabled           bool

	RetentionDays int
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:5173"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "internship_platform"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
			DebugSQL: getBool("DEBUG_SQL", false),
		},
		Redis: RedisConfig{
			URL:     os.Getenv("REDIS_URL"),
			Channel: getEnv("REDIS_NOTIFICATION_CHANNEL", "notifications:push"),
		},
		SMTP: SMTPConfig{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          getInt("SMTP_PORT", 587),
			User:          os.Getenv("SMTP_USER"),
			Password:      os.Getenv("SMTP_PASS"),
			From:          os.Getenv("SMTP_FROM"),
			SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
		},
		Supabase: SupabaseConfig{
			URL:    os.Getenv("SUPABASE_URL"),
			Key:    os.Getenv("SUPABASE_KEY"),
			Bucket: getEnv("SUPABASE_BUCKET", "uploads"),
		},
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		Notification: NotificationConfig{
			HeartbeatInterval:          getDuration("HEARTBEAT_INTERVAL", 30*time.Second),
			ClientBuffer:               getInt("NOTIFICATION_CLIENT_BUFFER", 64),
			TaskDeadlineInterval:       getDuration("REMINDER_TASK_INTERVAL", time.Hour),
			InternshipDeadlineInterval: getDuration("REMINDER_INTERNSHIP_INTERVAL", 6*time.Hour),
			PendingApplicationInterval: getDuration("REMINDER_PENDING_INTERVAL", 12*time.Hour),
			LowApplicationInterval:     getDuration("REMINDER_LOW_APPLICATIONS_INTERVAL", 24*time.Hour),
			StartupStagger:             getDuration("REMINDER_STARTUP_STAGGER", 10*time.Second),
			SweepTimeout:               getDuration("REMINDER_SWEEP_TIMEOUT", 2*time.Minute),
			RemindersEnabled:           getBool("REMINDERS_ENABLED", true),
			RetentionDays:              getInt("NOTIFICATION_RETENTION_DAYS", 90),
		},
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN ưu tiên DATABASE_URL (Render, Heroku...) rồi mới ghép từ các biến DB_*.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Database.Host, c.Database.User, c.Database.Password, c.Database.Name,
		c.Database.Port, c.Database.SSLMode, c.Database.TimeZone,
	)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration chấp nhận "90s", "1h" hoặc số giây thuần.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
