package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string

	JWTSecret string
	JWTTTL    time.Duration

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	BucketName     string
	MaxUploadBytes int64
	SignedURLTTL   time.Duration

	ShareBaseURL  string
	ShareCacheTTL time.Duration
	RoleCacheTTL  time.Duration

	CORSAllowedOrigins []string

	AdminEmails     []string
	AdminConfigFile string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	SMTPTLS      bool
	SMTPStartTLS bool

	RabbitMQURL                string
	RabbitMQPrefetch           int
	ReconcileWorkerConcurrency int
	ReconcileRate              float64
	ReconcileBurst             int
	ReconcileRetryMax          int
	ReconcileRetryDelays       []time.Duration
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	out := splitList(raw)
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := splitList(raw)
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func rabbitURLFromEnv() string {
	if raw := getEnv("RABBITMQ_URL", ""); raw != "" {
		return raw
	}
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/%s",
		url.PathEscape(getEnv("RABBITMQ_USER", "guest")),
		url.PathEscape(getEnv("RABBITMQ_PASSWORD", "guest")),
		getEnv("RABBITMQ_HOST", "localhost"),
		getEnv("RABBITMQ_PORT", "5672"),
		url.PathEscape(getEnv("RABBITMQ_VHOST", "/")),
	)
}

// Load reads the environment into a Config without touching globals.
func Load() Config {
	smtpPort := getEnv("SMTP_PORT", "")
	return Config{
		ServerAddr:     getEnv("SERVER_ADDR", ":8000"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTTTL:         getEnvDuration("JWT_TTL", 24*time.Hour),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "root"),
		DBPass:         getEnv("DB_PASS", ""),
		DBName:         getEnv("DB_NAME", "mini_drive"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		SQLitePath:     getEnv("SQLITE_PATH", "mini_drive.db"),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		BucketName:     getEnv("BUCKET_NAME", "user-files"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 100*1024*1024),
		SignedURLTTL:   getEnvDuration("SIGNED_URL_TTL", time.Hour),
		ShareBaseURL:   getEnv("SHARE_BASE_URL", "http://localhost:5173"),
		ShareCacheTTL:  getEnvDuration("SHARE_CACHE_TTL", 10*time.Minute),
		RoleCacheTTL:   getEnvDuration("ROLE_CACHE_TTL", 5*time.Minute),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		AdminEmails:        normalizeEmails(getEnvList("ADMIN_EMAILS", nil)),
		AdminConfigFile:    getEnv("ADMIN_CONFIG_FILE", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPTLS:      getEnvBool("SMTP_TLS", smtpPort == "465"),
		SMTPStartTLS: getEnvBool("SMTP_STARTTLS", false),

		RabbitMQURL:                rabbitURLFromEnv(),
		RabbitMQPrefetch:           getEnvInt("RABBITMQ_PREFETCH", 8),
		ReconcileWorkerConcurrency: getEnvInt("RECONCILE_WORKER_CONCURRENCY", 2),
		ReconcileRate:              getEnvFloat("RECONCILE_RATE", 5),
		ReconcileBurst:             getEnvInt("RECONCILE_BURST", 5),
		ReconcileRetryMax:          getEnvInt("RECONCILE_RETRY_MAX", 5),
		ReconcileRetryDelays: getEnvDurationList(
			"RECONCILE_RETRY_DELAYS",
			[]time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Minute, 10 * time.Minute},
		),
	}
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// SMTPConfigured reports whether outgoing mail can be sent.
func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPPort != "" && c.SMTPFrom != ""
}

// IsAdminEmail reports whether email is listed in the admin bootstrap set.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, candidate := range c.AdminEmails {
		if candidate == email {
			return true
		}
	}
	return false
}

// InitConfig loads configuration and initializes sub-configs.
func InitConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env failed: %v", err)
	}
	AppConfig = Load()

	if AppConfig.AdminConfigFile != "" {
		emails, err := LoadAdminEmails(AppConfig.AdminConfigFile)
		if err != nil {
			log.Fatalf("load admin config failed: %v", err)
		}
		AppConfig.AdminEmails = normalizeEmails(append(AppConfig.AdminEmails, emails...))
	}

	InitStorageConfig()
}
