package memory

import (
	"context"
	"errors"
	"testing"

	"expensebook/internal/storage"
)

var (
	_ storage.KV      = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewWith(map[string]string{"a": "1"})

	if v, err := s.Get(ctx, "a"); err != nil || v != "1" {
		t.Fatalf("seeded get = %q, %v", v, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetMany(ctx, map[string]string{"b": "2", "c": "3"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if keys := s.Keys(); len(keys) != 2 || keys[0] != "b" || keys[1] != "c" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
