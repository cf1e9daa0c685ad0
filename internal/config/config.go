package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel string

	// Backend selection: memory, sqlite or gcs
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Cloud Storage
	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsFile string

	// AMQP, empty URL disables notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Persistence
	PersistDelay time.Duration

	// Mutating requests allowed per client IP and minute
	RateLimitPerMinute int

	// Backups: dir or gcs
	BackupSink string
	BackupDir  string

	// Year printed in export file names
	ExportYear int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expensebook.db"),

		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSPrefix:          getEnv("GCS_PREFIX", "expensebook/"),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expensebook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "state_saved"),

		PersistDelay:       getEnvDuration("PERSIST_DELAY", 300*time.Millisecond),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		BackupSink: getEnv("BACKUP_SINK", "dir"),
		BackupDir:  getEnv("BACKUP_DIR", "./data/backups"),

		ExportYear: getEnvInt("EXPORT_YEAR", time.Now().Year()),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validBackends := []string{"memory", "sqlite", "gcs"}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(filepath.Dir(c.SQLiteDBPath)); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
		}
	}

	if c.DataBackend == "gcs" || c.BackupSink == "gcs" {
		if c.GCSBucket == "" {
			errors = append(errors, "GCS bucket is required when using gcs storage")
		}
		if c.GCSCredentialsFile != "" {
			if _, err := os.Stat(c.GCSCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("GCS credentials file does not exist: %s", c.GCSCredentialsFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PersistDelay < 10*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid persist delay %v: must be at least 10ms", c.PersistDelay))
	} else if c.PersistDelay > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid persist delay %v: must be at most 1 minute", c.PersistDelay))
	}

	validSinks := []string{"dir", "gcs"}
	if !oneOf(c.BackupSink, validSinks) {
		errors = append(errors, fmt.Sprintf("invalid backup sink '%s': must be one of %v", c.BackupSink, validSinks))
	}
	if c.BackupSink == "dir" && c.BackupDir == "" {
		errors = append(errors, "backup directory cannot be empty when using dir sink")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.ExportYear < 1900 || c.ExportYear > 9999 {
		errors = append(errors, fmt.Sprintf("invalid export year %d", c.ExportYear))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether save notifications should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
