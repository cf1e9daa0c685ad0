package backend

import (
	"context"

	"expensebook/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the key-value store, the state repository built
// on it and an optional cleanup function.
type BackendResult struct {
	KV         storage.KV
	Repository *storage.Repository
	Cleanup    CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
