// Package storage persists the application state in a key-value store.
// The SQLite backend lives here; memory and GCS backends live in the
// subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// Keys of the three stored blobs.
const (
	KeyExpenses  = "codeExpenses2026"
	KeySummaries = "monthlySummaries2026"
	KeyWorkbook  = "originalExcelWorkbook"
)

// KV is a string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Batcher is implemented by stores that can write several keys at once.
type Batcher interface {
	SetMany(ctx context.Context, values map[string]string) error
}
