// Package store holds the application state, the pure reducer that
// transitions it and the debounced persistence wired to its commits.
package store

import (
	"errors"

	"expensebook/internal/core"
)

var (
	ErrIndexOutOfRange = errors.New("expense index out of range")
	ErrUnknownAction   = errors.New("unknown action")
)

// State is the complete application state. Values handed out by the store
// are never modified afterwards; the reducer builds new maps and slices
// for every change.
type State struct {
	Expenses  core.Expenses
	Summaries core.Summaries
	// Workbook is the raw spreadsheet from the latest import, nil until
	// one happens.
	Workbook []byte
	Loaded   bool
}

// Empty returns an unloaded state with empty collections.
func Empty() State {
	return State{
		Expenses:  core.Expenses{},
		Summaries: core.Summaries{},
	}
}

// Clone returns a deep copy that callers may modify freely.
func (s State) Clone() State {
	out := State{
		Expenses:  s.Expenses.Clone(),
		Summaries: s.Summaries.Clone(),
		Loaded:    s.Loaded,
	}
	if s.Workbook != nil {
		out.Workbook = append([]byte(nil), s.Workbook...)
	}
	return out
}

// HasWorkbook reports whether an imported snapshot is retained.
func (s State) HasWorkbook() bool {
	return s.Workbook != nil
}
