package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	MonitorSchedule      string // cron expression for monitoring runs
	TokenRefreshSchedule string // cron expression for the token refresh check

	// Instagram Graph API credentials
	GraphAPIBaseURL     string
	InstagramBusinessID string
	InstagramToken      string
	FacebookAppID       string
	FacebookAppSecret   string

	// Database configuration
	DatabaseDSN string

	// Alerting configuration
	AlertWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Report archive (optional)
	StorageAccount   string
	StorageContainer string

	// Discovery tuning
	MinConfidence       int // acceptance threshold on the 0-100 scale
	PendingSessionLimit int
	SessionWindowDays   int
	PostFetchLimit      int

	// Rate-limit pacing
	SessionBatchSize int
	BatchDelay       time.Duration
	SessionDelay     time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		MonitorSchedule:      getEnv("MONITOR_SCHEDULE", "0 0 */2 * * *"),
		TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", "0 30 6 * * *"),

		GraphAPIBaseURL:     getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com/v19.0"),
		InstagramBusinessID: getEnv("POSTMYSTYLE_IG_USER_ID", ""),
		InstagramToken:      getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
		FacebookAppID:       getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:   getEnv("FACEBOOK_APP_SECRET", ""),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		AlertWebhookURL:   getEnv("MONITORING_ALERT_WEBHOOK", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "ugc-reports"),

		MinConfidence:       getIntEnv("UGC_MIN_CONFIDENCE", 40),
		PendingSessionLimit: getIntEnv("UGC_PENDING_SESSION_LIMIT", 20),
		SessionWindowDays:   getIntEnv("UGC_SESSION_WINDOW_DAYS", 30),
		PostFetchLimit:      getIntEnv("UGC_POST_FETCH_LIMIT", 25),

		SessionBatchSize: getIntEnv("UGC_SESSION_BATCH_SIZE", 3),
		BatchDelay:       getDurationEnv("UGC_BATCH_DELAY", time.Second),
		SessionDelay:     getDurationEnv("UGC_SESSION_DELAY", 250*time.Millisecond),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.InstagramBusinessID == "" {
		return fmt.Errorf("POSTMYSTYLE_IG_USER_ID is required")
	}

	if c.InstagramToken == "" {
		return fmt.Errorf("INSTAGRAM_ACCESS_TOKEN is required")
	}

	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}

	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("UGC_MIN_CONFIDENCE must be within [0,100]")
	}

	if c.SessionBatchSize < 1 {
		return fmt.Errorf("UGC_SESSION_BATCH_SIZE must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
