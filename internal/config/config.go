package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	BotToken       string
	GuildID        string
	ChannelID      string
	AlertChannelID string

	// Database configuration
	DatabasePath string

	// Logging configuration
	LogLevel string

	// Time zone all wall-clock behavior is anchored to
	TimeZone string

	// Scheduler configuration (cron specs, evaluated in TimeZone)
	DailyThreadCron  string
	DailyRollupCron  string
	WeeklyReportCron string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
}

// Load reads configuration from environment variables
// It fails fast if required variables are missing
func Load() (*Config, error) {
	cfg := &Config{
		// Optional values with defaults
		DatabasePath:     getEnv("DATABASE_PATH", "./data.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		TimeZone:         getEnv("TIME_ZONE", "Asia/Seoul"),
		DailyThreadCron:  getEnv("DAILY_THREAD_CRON", "0 10 * * *"),
		DailyRollupCron:  getEnv("DAILY_ROLLUP_CRON", "50 23 * * *"),
		WeeklyReportCron: getEnv("WEEKLY_REPORT_CRON", "0 9 * * 1"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", false),
		MetricsHost:      getEnv("METRICS_HOST", "localhost"),
		MetricsPort:      getEnvInt("METRICS_PORT", 4201),
	}

	// Required values
	var missingVars []string

	cfg.BotToken = os.Getenv("DISCORD_BOT_TOKEN")
	if cfg.BotToken == "" {
		missingVars = append(missingVars, "DISCORD_BOT_TOKEN")
	}

	cfg.GuildID = os.Getenv("DISCORD_GUILD_ID")
	if cfg.GuildID == "" {
		missingVars = append(missingVars, "DISCORD_GUILD_ID")
	}

	cfg.ChannelID = os.Getenv("DISCORD_CHANNEL_ID")
	if cfg.ChannelID == "" {
		missingVars = append(missingVars, "DISCORD_CHANNEL_ID")
	}

	cfg.AlertChannelID = os.Getenv("DISCORD_ALERT_CHANNEL_ID")
	if cfg.AlertChannelID == "" {
		missingVars = append(missingVars, "DISCORD_ALERT_CHANNEL_ID")
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return cfg, nil
}

// Sync window limits. SyncEscapeValue is a deliberate, documented escape
// hatch: passing exactly that day count expands the window to
// SyncEscapeDays instead of being rejected by the cap.
const (
	MinSyncDays     = 1
	MaxSyncDays     = 30
	SyncEscapeValue = 1995
	SyncEscapeDays  = 365
)

var (
	ErrSyncDaysTooFew  = errors.New("sync day count must be at least 1")
	ErrSyncDaysTooMany = errors.New("sync day count exceeds the 30-day cap")
)

// ResolveSyncDays validates a requested sync window and applies the escape
// hatch. It is called before any store or gateway work happens.
func ResolveSyncDays(days int) (int, error) {
	if days == SyncEscapeValue {
		return SyncEscapeDays, nil
	}
	if days < MinSyncDays {
		return 0, ErrSyncDaysTooFew
	}
	if days > MaxSyncDays {
		return 0, ErrSyncDaysTooMany
	}
	return days, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
