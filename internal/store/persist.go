package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensebook/internal/core"
	"expensebook/internal/log"
)

// Repository is the durable home of the state.
type Repository interface {
	Load(ctx context.Context) (core.Expenses, core.Summaries, []byte, error)
	SaveData(ctx context.Context, expenses core.Expenses, summaries core.Summaries) error
	SaveWorkbook(ctx context.Context, workbook []byte) error
}

// SavedEvent describes a completed save.
type SavedEvent struct {
	Revision    uint64
	Entries     int
	HasWorkbook bool
	SavedAt     time.Time
}

// Notifier is told about every successful save.
type Notifier interface {
	NotifySaved(ctx context.Context, ev SavedEvent) error
}

// DefaultPersistDelay is the quiet period before a write.
const DefaultPersistDelay = 300 * time.Millisecond

const saveTimeout = 15 * time.Second

// Persister hydrates a store from a Repository and writes it back after
// every later change, collapsing bursts of commits into one write.
// Failures are logged and never roll back the in-memory state.
type Persister struct {
	repo      Repository
	notifier  Notifier
	debouncer *Debouncer
	logger    *log.Logger

	mu            sync.Mutex
	latest        *Commit
	savedWorkbook []byte

	saveMu sync.Mutex
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithNotifier sets the notifier called after each save.
func WithNotifier(n Notifier) PersisterOption {
	return func(p *Persister) { p.notifier = n }
}

// WithLogger sets the persister's logger.
func WithLogger(l *log.Logger) PersisterOption {
	return func(p *Persister) { p.logger = l.WithComponent(log.ComponentPersist) }
}

// NewPersister returns a persister writing to repo after delay.
func NewPersister(repo Repository, delay time.Duration, opts ...PersisterOption) *Persister {
	if delay <= 0 {
		delay = DefaultPersistDelay
	}
	p := &Persister{
		repo:      repo,
		debouncer: NewDebouncer(delay),
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hydrate subscribes to s and loads the stored state into it. When the
// load fails the store is still marked loaded, with empty collections,
// and the load error is returned.
func (p *Persister) Hydrate(ctx context.Context, s *Store) error {
	s.OnCommit(p.onCommit)

	expenses, summaries, workbook, err := p.repo.Load(ctx)
	if err != nil {
		p.logger.Error("Failed to load stored state, starting empty",
			log.FieldOperation, log.OpHydrate, log.FieldError, err)
		if _, derr := s.Dispatch(Load{State: Empty()}); derr != nil {
			return derr
		}
		return fmt.Errorf("hydrate: %w", err)
	}

	p.mu.Lock()
	p.savedWorkbook = workbook
	p.mu.Unlock()

	_, err = s.Dispatch(Load{State: State{
		Expenses:  expenses,
		Summaries: summaries,
		Workbook:  workbook,
	}})
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	p.logger.Info("State hydrated",
		log.FieldEntries, expenses.Count(),
		"has_workbook", workbook != nil)
	return nil
}

func (p *Persister) onCommit(c Commit) {
	// The hydration commit mirrors what is already stored.
	if _, ok := c.Action.(Load); ok {
		return
	}
	if !c.State.Loaded {
		return
	}
	p.mu.Lock()
	p.latest = &c
	p.mu.Unlock()
	p.debouncer.Schedule(func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		p.persist(ctx)
	})
}

// Flush writes a pending change immediately.
func (p *Persister) Flush() {
	p.debouncer.Flush()
}

// Close stops the debouncer and writes any pending change with ctx. A
// write already running on the timer is waited for.
func (p *Persister) Close(ctx context.Context) {
	p.debouncer.Stop()
	p.persist(ctx)
}

func (p *Persister) persist(ctx context.Context) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	c := p.latest
	p.latest = nil
	saved := p.savedWorkbook
	p.mu.Unlock()
	if c == nil {
		return
	}

	st := c.State
	if err := p.repo.SaveData(ctx, st.Expenses, st.Summaries); err != nil {
		p.logger.Error("Failed to persist state",
			log.FieldOperation, log.OpPersist, log.FieldRevision, c.Revision, log.FieldError, err)
		return
	}
	if st.HasWorkbook() && !sameBytes(st.Workbook, saved) {
		if err := p.repo.SaveWorkbook(ctx, st.Workbook); err != nil {
			p.logger.Error("Failed to persist workbook",
				log.FieldOperation, log.OpPersist, log.FieldRevision, c.Revision, log.FieldError, err)
			return
		}
		p.mu.Lock()
		p.savedWorkbook = st.Workbook
		p.mu.Unlock()
	}

	p.logger.Debug("State persisted", log.FieldRevision, c.Revision, log.FieldEntries, st.Expenses.Count())

	if p.notifier == nil {
		return
	}
	ev := SavedEvent{
		Revision:    c.Revision,
		Entries:     st.Expenses.Count(),
		HasWorkbook: st.HasWorkbook(),
		SavedAt:     time.Now().UTC(),
	}
	if err := p.notifier.NotifySaved(ctx, ev); err != nil {
		p.logger.Warn("Failed to publish save notification",
			log.FieldOperation, log.OpNotify, log.FieldRevision, c.Revision, log.FieldError, err)
	}
}

// sameBytes reports whether a and b are the same snapshot. Snapshots are
// never modified in place, so identity is enough.
func sameBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}
