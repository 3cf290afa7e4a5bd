// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"renewalwatch_backend/platform/validator"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and batch runner.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetRiskScanInterval() time.Duration
	GetRiskScanConcurrency() int
}

// CacheConfig provides settings for the Redis risk cache.
type CacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// RiskConfig provides settings for the renewal risk pipeline.
type RiskConfig interface {
	GetLookaheadDays() int
	GetWonStatuses() []string
}

// NotificationConfig provides settings for notification synchronization.
type NotificationConfig interface {
	GetNeglectedAccountDays() int
	GetTaskDueWindow() time.Duration
	GetReadNotificationRetention() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// defaultWonStatuses is the canonical exact-match allow-list for statuses
// counted as Won. Overridable via RISK_WON_STATUSES (comma-separated).
var defaultWonStatuses = []string{
	"contract signed",
	"work complete",
	"billing complete",
	"email contract award",
	"verbal contract award",
	"sold",
	"won",
}

// Config holds all application configuration values.
type Config struct {
	Env                       string `validate:"required"`
	HTTPAddr                  string `validate:"required"`
	DatabaseURL               string `validate:"required"`
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	RedisURL                  string
	RedisTLSInsecure          bool
	AsynqQueueName            string
	AsynqConcurrency          int           `validate:"min=1"`
	RiskScanInterval          time.Duration `validate:"min=1m"`
	RiskScanConcurrency       int           `validate:"min=1"`
	RiskLookaheadDays         int           `validate:"min=1"`
	RiskWonStatuses           []string      `validate:"min=1,dive,required"`
	NeglectedAccountDays      int           `validate:"min=1"`
	TaskDueWindow             time.Duration `validate:"min=1m"`
	ReadNotificationRetention time.Duration `validate:"min=1h"`
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig and CacheConfig implementation
func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool            { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string            { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int             { return c.AsynqConcurrency }
func (c *Config) GetRiskScanInterval() time.Duration   { return c.RiskScanInterval }
func (c *Config) GetRiskScanConcurrency() int          { return c.RiskScanConcurrency }

// RiskConfig implementation
func (c *Config) GetLookaheadDays() int     { return c.RiskLookaheadDays }
func (c *Config) GetWonStatuses() []string  { return c.RiskWonStatuses }

// NotificationConfig implementation
func (c *Config) GetNeglectedAccountDays() int { return c.NeglectedAccountDays }
func (c *Config) GetTaskDueWindow() time.Duration {
	return c.TaskDueWindow
}
func (c *Config) GetReadNotificationRetention() time.Duration {
	return c.ReadNotificationRetention
}

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from environment variables, falling back to a .env
// file in development.
func Load() (*Config, error) {
	// Best-effort .env loading; environment variables always win.
	_ = godotenv.Load()

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		CORSAllowAll:              getBoolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:               splitCSV(os.Getenv("CORS_ORIGINS")),
		CORSAllowCreds:            getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:                  getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:          getBoolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:          getIntEnv("ASYNQ_CONCURRENCY", 10),
		RiskScanInterval:          getDurationEnv("RISK_SCAN_INTERVAL", 6*time.Hour),
		RiskScanConcurrency:       getIntEnv("RISK_SCAN_CONCURRENCY", 4),
		RiskLookaheadDays:         getIntEnv("RISK_LOOKAHEAD_DAYS", 180),
		RiskWonStatuses:           wonStatusesFromEnv(),
		NeglectedAccountDays:      getIntEnv("NEGLECTED_ACCOUNT_DAYS", 30),
		TaskDueWindow:             getDurationEnv("TASK_DUE_WINDOW", 24*time.Hour),
		ReadNotificationRetention: getDurationEnv("READ_NOTIFICATION_RETENTION", 30*24*time.Hour),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// wonStatusesFromEnv returns the configured won-status allow-list, already
// trimmed and lower-cased, or the canonical default set.
func wonStatusesFromEnv() []string {
	raw := os.Getenv("RISK_WON_STATUSES")
	if strings.TrimSpace(raw) == "" {
		out := make([]string, len(defaultWonStatuses))
		copy(out, defaultWonStatuses)
		return out
	}

	items := splitCSV(raw)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToLower(item))
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
