package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes backups into a local directory.
type DirSink struct {
	Dir string
}

// Put writes data to Dir/name through a temporary file so readers never
// see a partial workbook.
func (s DirSink) Put(_ context.Context, name, _ string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".backup-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("rename backup: %w", err)
	}
	return nil
}
