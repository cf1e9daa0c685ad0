package store

import (
	"sync"

	"expensebook/internal/aggregate"
	"expensebook/internal/core"
	"expensebook/internal/log"
)

// Commit describes one applied action.
type Commit struct {
	Revision uint64
	Action   Action
	State    State
}

// CommitHook observes commits. Hooks run in registration order while the
// store is locked, so they must not call back into the store.
type CommitHook func(Commit)

// Store serializes dispatches and publishes each new state to its hooks.
type Store struct {
	mu       sync.RWMutex
	state    State
	revision uint64
	hooks    []CommitHook
	logger   *log.Logger
}

// New returns a store holding an empty, unloaded state.
func New(logger *log.Logger) *Store {
	return &Store{
		state:  Empty(),
		logger: log.OrDiscard(logger).WithComponent(log.ComponentStore),
	}
}

// OnCommit registers a hook called after every successful dispatch.
func (s *Store) OnCommit(h CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Dispatch applies a and returns the new revision. A rejected action
// leaves the state and revision unchanged.
func (s *Store) Dispatch(a Action) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(a)
}

// Remove deletes the expense at index in m and returns it. ok is false
// when index is out of range; the delete is still committed as a no-op.
func (s *Store) Remove(m core.Month, index int) (removed core.Expense, ok bool, rev uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if list := s.state.Expenses.For(m); index >= 0 && index < len(list) {
		removed, ok = list[index], true
	}
	rev, err = s.apply(DeleteExpense{Month: m, Index: index})
	if err != nil {
		return core.Expense{}, false, rev, err
	}
	return removed, ok, rev, nil
}

// apply runs a against the current state. s.mu must be held.
func (s *Store) apply(a Action) (uint64, error) {
	next, err := Reduce(s.state, a)
	if err != nil {
		s.logger.Debug("Action rejected", log.FieldAction, a.Type(), log.FieldError, err)
		return s.revision, err
	}
	s.state = next
	s.revision++

	s.logger.Debug("Action applied",
		log.FieldAction, a.Type(),
		log.FieldRevision, s.revision,
		log.FieldEntries, next.Expenses.Count(),
	)

	c := Commit{Revision: s.revision, Action: a, State: next}
	for _, h := range s.hooks {
		h(c)
	}
	return s.revision, nil
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Snapshot returns the current state and revision without copying. The
// result must be treated as read-only.
func (s *Store) Snapshot() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.revision
}

// Revision returns the number of commits applied so far.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Loaded reports whether hydration has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loaded
}

// Month returns the records of m with their total and summary.
func (s *Store) Month(m core.Month) (core.MonthOverview, error) {
	if !m.Valid() {
		return core.MonthOverview{}, core.ErrInvalidMonth
	}
	st, _ := s.Snapshot()
	list := append([]core.Expense{}, st.Expenses.For(m)...)
	return core.MonthOverview{
		Month:    m,
		Name:     m.Name(),
		Emoji:    m.Emoji(),
		Expenses: list,
		Total:    aggregate.MonthTotal(st.Expenses, m),
		Summary:  st.Summaries.For(m),
	}, nil
}

// Summary returns the summary text of m, empty when none was saved.
func (s *Store) Summary(m core.Month) (string, error) {
	if !m.Valid() {
		return "", core.ErrInvalidMonth
	}
	st, _ := s.Snapshot()
	return st.Summaries.For(m), nil
}

// Dashboard computes the dashboard for the current state.
func (s *Store) Dashboard(f aggregate.Filter) aggregate.Dashboard {
	st, _ := s.Snapshot()
	return aggregate.BuildDashboard(st.Expenses, f)
}
