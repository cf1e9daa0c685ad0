package worker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"expensebook/internal/amqp"
	"expensebook/internal/core"
	"expensebook/internal/workbook"
)

type fakeLoader struct {
	expenses core.Expenses
	err      error
	loads    int
}

func (f *fakeLoader) Load(context.Context) (core.Expenses, core.Summaries, []byte, error) {
	f.loads++
	if f.err != nil {
		return nil, nil, nil, f.err
	}
	return f.expenses, core.Summaries{core.Jan: "note"}, nil, nil
}

func TestBackupWorkerWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	loader := &fakeLoader{expenses: core.Expenses{
		core.Jan: {{Name: "Rent", Date: 1, Amount: 1200, Primary: "Housing", Secondary: "Rent"}},
	}}
	w := NewBackupWorker(loader, DirSink{Dir: dir}, 2026, nil)
	w.now = func() time.Time { return time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC) }

	msg := &amqp.StateSavedMessage{Revision: 4, Timestamp: time.Now()}
	if err := w.HandleStateSaved(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "2026 - Expenses - 2026-02-03.xlsx"))
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	res, err := workbook.Import(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Expenses[core.Jan]) != 1 || res.Summaries[core.Jan] != "note" {
		t.Fatalf("unexpected backup content: %+v", res)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %d entries", len(entries))
	}
}

func TestBackupWorkerSkipsStale(t *testing.T) {
	loader := &fakeLoader{expenses: core.Expenses{}}
	w := NewBackupWorker(loader, DirSink{Dir: t.TempDir()}, 2026, nil)

	now := time.Now()
	_ = w.HandleStateSaved(context.Background(), &amqp.StateSavedMessage{Revision: 2, Timestamp: now})
	_ = w.HandleStateSaved(context.Background(), &amqp.StateSavedMessage{Revision: 1, Timestamp: now.Add(-time.Minute)})
	if loader.loads != 1 {
		t.Fatalf("stale message should not trigger a backup, loads=%d", loader.loads)
	}
}

func TestBackupWorkerLoadError(t *testing.T) {
	loader := &fakeLoader{err: errors.New("offline")}
	w := NewBackupWorker(loader, DirSink{Dir: t.TempDir()}, 2026, nil)
	if err := w.HandleStateSaved(context.Background(), &amqp.StateSavedMessage{Timestamp: time.Now()}); err == nil {
		t.Fatalf("expected load error so the message is requeued")
	}
}
