package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"vaultbank-service/internal/pkg/jwt"
)

type AppConfig struct {
	// Server
	HTTPAddr   string
	AppEnv     string
	InstanceID string

	// Storage
	DatabaseURL string
	RedisAddr   string
	RedisPass   string
	RedisDB     int

	// Hosted auth provider tokens
	JWT jwt.Config

	// SMTP
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	SMTPFromName string
	SMTPSecure   bool

	// Links in customer emails
	AppBaseURL string

	OTP        OTPConfig
	Assignment AssignmentConfig
}

type OTPConfig struct {
	TTL            time.Duration
	ResendCooldown time.Duration
	BcryptCost     int
	PurgeSchedule  string

	// Bypass codes are only honoured when TestMode is on.
	TestMode    bool
	BypassCodes []string
}

type AssignmentConfig struct {
	WorkloadStatuses []string
	LockTTL          time.Duration
	LockWait         time.Duration
	Stream           string
	Group            string
	WorkerEnabled    bool
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:   getEnv("HTTP_ADDR", ":8000"),
		AppEnv:     getEnv("APP_ENV", "production"),
		InstanceID: getEnv("INSTANCE_ID", hostname()),

		DatabaseURL: databaseURL(),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASS", ""),
		RedisDB:     getEnvInt("REDIS_DB", 0),

		JWT: jwt.Config{
			Secret:   getEnv("AUTH_JWT_SECRET", ""),
			Issuer:   getEnv("AUTH_JWT_ISSUER", ""),
			Audience: getEnv("AUTH_JWT_AUDIENCE", "authenticated"),
			TTL:      getEnvDuration("AUTH_JWT_TTL", time.Hour),
		},

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "465"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "VaultBank Security"),
		SMTPSecure:   strings.ToLower(getEnv("SMTP_SECURE", "true")) == "true",

		AppBaseURL: getEnv("APP_BASE_URL", "https://vaulteonline.com/bank"),

		OTP: OTPConfig{
			TTL:            getEnvDuration("OTP_TTL", 10*time.Minute),
			ResendCooldown: getEnvDuration("OTP_RESEND_COOLDOWN", 60*time.Second),
			BcryptCost:     getEnvInt("OTP_BCRYPT_COST", 10),
			PurgeSchedule:  getEnv("OTP_PURGE_SCHEDULE", "@every 5m"),
			TestMode:       strings.ToLower(getEnv("OTP_TEST_MODE", "false")) == "true",
			BypassCodes:    getEnvSlice("OTP_BYPASS_CODES", []string{"112233", "654308"}),
		},

		Assignment: AssignmentConfig{
			WorkloadStatuses: getEnvSlice("WORKLOAD_STATUSES", []string{"open"}),
			LockTTL:          getEnvDuration("ASSIGNMENT_LOCK_TTL", 10*time.Second),
			LockWait:         getEnvDuration("ASSIGNMENT_LOCK_WAIT", 3*time.Second),
			Stream:           getEnv("ASSIGNMENT_STREAM", "support:ticket_created"),
			Group:            getEnv("ASSIGNMENT_GROUP", "assigners"),
			WorkerEnabled:    strings.ToLower(getEnv("ASSIGNMENT_WORKER_ENABLED", "true")) == "true",
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c AppConfig) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL or DB_HOST/DB_NAME are required")
	}
	if c.JWT.Secret == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("config: OTP_TTL must be positive, got %s", c.OTP.TTL)
	}
	if c.OTP.TestMode && c.IsProduction() {
		return errors.New("config: OTP_TEST_MODE must not be enabled in production")
	}
	for _, code := range c.OTP.BypassCodes {
		if len(code) != 6 {
			return fmt.Errorf("config: bypass code %q must have 6 digits", code)
		}
	}
	if len(c.Assignment.WorkloadStatuses) == 0 {
		return errors.New("config: WORKLOAD_STATUSES must not be empty")
	}
	return nil
}

func (c AppConfig) IsProduction() bool {
	return c.AppEnv == "production"
}

// SMTPConfigured reports whether outbound email can be attempted.
func (c AppConfig) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

// --- Helper functions ---

func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := getEnv("DB_HOST", "")
	name := getEnv("DB_NAME", "")
	if host == "" || name == "" {
		return ""
	}
	pass := url.QueryEscape(getEnv("DB_PASSWORD", "postgres"))
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "postgres"), pass, host, getEnv("DB_PORT", "5432"), name, getEnv("DB_SSLMODE", "disable"))
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "vaultbank"
	}
	return h
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
