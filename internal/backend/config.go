package backend

import (
	"fmt"

	"expensebook/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Cloud Storage specific
	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsFile string

	// Notifications, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Backups
	BackupSink string
	BackupDir  string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	GCSBackend    BackendType = "gcs"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, GCSBackend:
		return true
	default:
		return false
	}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GCSBucket:          appConfig.GCSBucket,
		GCSPrefix:          appConfig.GCSPrefix,
		GCSCredentialsFile: appConfig.GCSCredentialsFile,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		BackupSink: appConfig.BackupSink,
		BackupDir:  appConfig.BackupDir,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case GCSBackend:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs backend")
		}
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, GCSBackend}
}
