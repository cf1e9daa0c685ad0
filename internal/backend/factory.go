package backend

import (
	"context"
	"fmt"

	"expensebook/internal/amqp"
	"expensebook/internal/log"
	"expensebook/internal/storage"
	"expensebook/internal/storage/gcs"
	"expensebook/internal/storage/memory"
	"expensebook/internal/store"
	"expensebook/internal/worker"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	return &DefaultFactory{
		logger: log.OrDiscard(logger).WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv      storage.KV
		cleanup CleanupFunc
	)
	switch config.Type {
	case MemoryBackend:
		kv = memory.New()
		f.logger.Info("Initialized memory backend")
	case SQLiteBackend:
		db, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
		kv, cleanup = db, db.Close
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case GCSBackend:
		bucket, err := gcs.New(ctx, config.GCSBucket, config.GCSPrefix, config.GCSCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS backend: %w", err)
		}
		kv, cleanup = bucket, bucket.Close
		f.logger.Info("Initialized GCS backend", "bucket", config.GCSBucket, "prefix", config.GCSPrefix)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	return &BackendResult{
		KV:         kv,
		Repository: storage.NewRepository(kv, f.logger),
		Cleanup:    cleanup,
	}, nil
}

// CreateNotifier connects to AMQP when configured. It returns a nil
// notifier when AMQP is disabled or the connection fails; the failure is
// logged.
func (f *DefaultFactory) CreateNotifier(config Config) (store.Notifier, CleanupFunc) {
	if config.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		return nil, nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	return client, client.Close
}

// CreateBackupSink returns where backup workbooks are written.
func (f *DefaultFactory) CreateBackupSink(ctx context.Context, config Config) (worker.Sink, CleanupFunc, error) {
	switch config.BackupSink {
	case "", "dir":
		f.logger.Info("Backups go to directory", "dir", config.BackupDir)
		return worker.DirSink{Dir: config.BackupDir}, nil, nil
	case "gcs":
		bucket, err := gcs.New(ctx, config.GCSBucket, config.GCSPrefix, config.GCSCredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize GCS backup sink: %w", err)
		}
		f.logger.Info("Backups go to GCS", "bucket", config.GCSBucket)
		return bucket, bucket.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backup sink: %s", config.BackupSink)
	}
}
