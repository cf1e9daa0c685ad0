// Package worker turns state-saved notifications into spreadsheet backups.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensebook/internal/amqp"
	"expensebook/internal/core"
	"expensebook/internal/log"
	"expensebook/internal/workbook"
)

// StateLoader reads the persisted state.
type StateLoader interface {
	Load(ctx context.Context) (core.Expenses, core.Summaries, []byte, error)
}

// Sink stores a finished backup file.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

// BackupWorker exports the stored state to a workbook and hands it to a
// sink. One file is kept per day; later saves on the same day overwrite it.
type BackupWorker struct {
	repo   StateLoader
	sink   Sink
	year   int
	now    func() time.Time
	logger *log.Logger

	mu        sync.Mutex
	lastSaved time.Time
}

func NewBackupWorker(repo StateLoader, sink Sink, year int, logger *log.Logger) *BackupWorker {
	return &BackupWorker{
		repo:   repo,
		sink:   sink,
		year:   year,
		now:    time.Now,
		logger: log.OrDiscard(logger).WithComponent(log.ComponentBackup),
	}
}

// HandleStateSaved backs up the state announced by msg. Messages older
// than one already handled are skipped, since storage only holds the
// newest state anyway.
func (w *BackupWorker) HandleStateSaved(ctx context.Context, msg *amqp.StateSavedMessage) error {
	w.mu.Lock()
	stale := !w.lastSaved.IsZero() && msg.Timestamp.Before(w.lastSaved)
	w.mu.Unlock()
	if stale {
		w.logger.DebugContext(ctx, "Skipping stale notification",
			"id", msg.ID, log.FieldRevision, msg.Revision)
		return nil
	}

	name, err := w.BackupNow(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if msg.Timestamp.After(w.lastSaved) {
		w.lastSaved = msg.Timestamp
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Backup written",
		"id", msg.ID, log.FieldRevision, msg.Revision, log.FieldFile, name)
	return nil
}

// BackupNow exports the current stored state and returns the file name.
func (w *BackupWorker) BackupNow(ctx context.Context) (string, error) {
	expenses, summaries, snapshot, err := w.repo.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load state: %w", err)
	}
	data, err := workbook.Export(expenses, summaries, snapshot)
	if err != nil {
		return "", fmt.Errorf("export workbook: %w", err)
	}
	name := workbook.FileName(w.year, w.now())
	if err := w.sink.Put(ctx, name, workbook.ContentType, data); err != nil {
		return "", fmt.Errorf("store backup %s: %w", name, err)
	}
	return name, nil
}
