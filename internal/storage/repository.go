package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"expensebook/internal/core"
	"expensebook/internal/log"
)

// Repository stores the state as JSON blobs and the workbook snapshot as
// base64 text in a KV.
type Repository struct {
	kv     KV
	logger *log.Logger
}

func NewRepository(kv KV, logger *log.Logger) *Repository {
	return &Repository{
		kv:     kv,
		logger: log.OrDiscard(logger).WithComponent(log.ComponentStorage),
	}
}

// Load reads the stored state. Missing keys read as empty collections and
// a nil workbook. Entries under unknown month keys are dropped.
func (r *Repository) Load(ctx context.Context) (core.Expenses, core.Summaries, []byte, error) {
	expenses := core.Expenses{}
	if err := r.getJSON(ctx, KeyExpenses, &expenses); err != nil {
		return nil, nil, nil, err
	}
	summaries := core.Summaries{}
	if err := r.getJSON(ctx, KeySummaries, &summaries); err != nil {
		return nil, nil, nil, err
	}
	for m := range expenses {
		if !m.Valid() {
			r.logger.Warn("Dropping expenses under unknown month", log.FieldMonth, string(m))
			delete(expenses, m)
		}
	}
	for m := range summaries {
		if !m.Valid() {
			delete(summaries, m)
		}
	}

	encoded, err := r.kv.Get(ctx, KeyWorkbook)
	if errors.Is(err, ErrNotFound) {
		return expenses, summaries, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load workbook: %w", err)
	}
	workbook, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode workbook: %w", err)
	}
	return expenses, summaries, workbook, nil
}

func (r *Repository) getJSON(ctx context.Context, key string, dst any) error {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SaveData writes the expense and summary blobs, in one batch when the
// store supports it.
func (r *Repository) SaveData(ctx context.Context, expenses core.Expenses, summaries core.Summaries) error {
	if expenses == nil {
		expenses = core.Expenses{}
	}
	if summaries == nil {
		summaries = core.Summaries{}
	}
	e, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	s, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}

	if b, ok := r.kv.(Batcher); ok {
		return b.SetMany(ctx, map[string]string{
			KeyExpenses:  string(e),
			KeySummaries: string(s),
		})
	}
	if err := r.kv.Set(ctx, KeyExpenses, string(e)); err != nil {
		return err
	}
	return r.kv.Set(ctx, KeySummaries, string(s))
}

// SaveWorkbook stores the snapshot; nil removes it.
func (r *Repository) SaveWorkbook(ctx context.Context, workbook []byte) error {
	if workbook == nil {
		if err := r.kv.Delete(ctx, KeyWorkbook); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}
	return r.kv.Set(ctx, KeyWorkbook, base64.StdEncoding.EncodeToString(workbook))
}
