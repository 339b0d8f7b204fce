package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Backend    BackendConfig
	Session    SessionConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	AWS        AWSConfig
	Attendance AttendanceConfig
	TreeChat   TreeChatConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	TimeZone           string // IANA name used to interpret event date+time; empty = local
}

// BackendConfig points at the external service that owns auth, events, face matching and inference.
type BackendConfig struct {
	BaseURL        string // e.g. http://localhost:8000
	RequestTimeout time.Duration
}

// SessionConfig holds the signed session token settings used by the auth gate.
type SessionConfig struct {
	Secret        string
	CookieName    string
	ExpireMinutes int
	CookieSecure  bool
	ViewStateTTL  time.Duration // lifetime of per-user page state in Redis
}

// DatabaseConfig holds PostgreSQL connection settings for the capture audit trail.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials and S3 bucket names.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CapturesBucket       string
	PortraitsBucket      string
	PresignExpireMinutes int
}

// AttendanceConfig tunes capture sessions.
type AttendanceConfig struct {
	IdleTimeout   time.Duration // sessions without activity are released after this long
	JPEGQuality   int
	ArchiveFrames bool
}

// TreeChatConfig holds the generative model settings for the talk-with-a-tree page.
type TreeChatConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	HistoryLimit int
	StateTTL     time.Duration // lifetime of the portrait and chat history in Redis
	Timeout      time.Duration
}

// Enabled reports whether S3 has enough configuration to be used.
func (c AWSConfig) Enabled() bool {
	return c.Region != "" && c.CapturesBucket != ""
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Location resolves ServerConfig.TimeZone, falling back to time.Local.
func (c ServerConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	_ = godotenv.Load("env")

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "3000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 60),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			TimeZone:           getEnv("APP_TIMEZONE", ""),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
			RequestTimeout: getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", "change-me-in-production"),
			CookieName:    getEnv("SESSION_COOKIE", "tp_session"),
			ExpireMinutes: getEnvInt("SESSION_EXPIRE_MINUTES", 10),
			CookieSecure:  getEnv("SESSION_COOKIE_SECURE", "false") == "true",
			ViewStateTTL:  getEnvDuration("VIEW_STATE_TTL", 2*time.Hour),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "treeplant"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 4),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CapturesBucket:       getEnv("AWS_S3_CAPTURES_BUCKET", ""),
			PortraitsBucket:      getEnv("AWS_S3_PORTRAITS_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Attendance: AttendanceConfig{
			IdleTimeout:   getEnvDuration("ATTENDANCE_IDLE_TIMEOUT", 30*time.Minute),
			JPEGQuality:   getEnvInt("ATTENDANCE_JPEG_QUALITY", 80),
			ArchiveFrames: getEnv("ATTENDANCE_ARCHIVE_FRAMES", "true") == "true",
		},
		TreeChat: TreeChatConfig{
			APIKey:       getEnv("GEMINI_API_KEY", ""),
			BaseURL:      strings.TrimRight(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
			Model:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			HistoryLimit: getEnvInt("TREE_CHAT_HISTORY", 40),
			StateTTL:     getEnvDuration("TREE_CHAT_TTL", 24*time.Hour),
			Timeout:      getEnvDuration("GEMINI_TIMEOUT", 20*time.Second),
		},
	}
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
