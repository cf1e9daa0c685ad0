package store

import (
	"fmt"
	"sort"

	"expensebook/internal/core"
)

// Reduce returns the state that results from applying a to s. It never
// modifies s; on error s is returned unchanged.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case AddExpense:
		if !a.Month.Valid() {
			return s, fmt.Errorf("add expense: %w", core.ErrInvalidMonth)
		}
		cur := s.Expenses.For(a.Month)
		list := make([]core.Expense, 0, len(cur)+1)
		list = append(list, cur...)
		list = append(list, a.Expense)
		return withMonth(s, a.Month, sortByDate(list)), nil

	case EditExpense:
		if !a.Month.Valid() {
			return s, fmt.Errorf("edit expense: %w", core.ErrInvalidMonth)
		}
		cur := s.Expenses.For(a.Month)
		if a.Index < 0 || a.Index >= len(cur) {
			return s, fmt.Errorf("edit expense %s[%d]: %w", a.Month, a.Index, ErrIndexOutOfRange)
		}
		list := append([]core.Expense(nil), cur...)
		list[a.Index] = a.Expense
		return withMonth(s, a.Month, sortByDate(list)), nil

	case DeleteExpense:
		if !a.Month.Valid() {
			return s, fmt.Errorf("delete expense: %w", core.ErrInvalidMonth)
		}
		cur := s.Expenses.For(a.Month)
		list := make([]core.Expense, 0, len(cur))
		for i, e := range cur {
			if i != a.Index {
				list = append(list, e)
			}
		}
		return withMonth(s, a.Month, list), nil

	case SaveSummary:
		if !a.Month.Valid() {
			return s, fmt.Errorf("save summary: %w", core.ErrInvalidMonth)
		}
		next := s
		next.Summaries = s.Summaries.Clone()
		next.Summaries[a.Month] = a.Text
		return next, nil

	case ImportData:
		next := s
		next.Expenses = a.Expenses.Clone()
		next.Summaries = a.Summaries.Clone()
		next.Workbook = a.Workbook
		return next, nil

	case Load:
		next := a.State
		if next.Expenses == nil {
			next.Expenses = core.Expenses{}
		}
		if next.Summaries == nil {
			next.Summaries = core.Summaries{}
		}
		next.Loaded = true
		return next, nil

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

// withMonth returns s with month m's list replaced. The map is copied;
// the other months' slices are shared because they are never written to.
func withMonth(s State, m core.Month, list []core.Expense) State {
	next := s
	next.Expenses = make(core.Expenses, len(s.Expenses)+1)
	for k, v := range s.Expenses {
		next.Expenses[k] = v
	}
	next.Expenses[m] = list
	return next
}

func sortByDate(list []core.Expense) []core.Expense {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date < list[j].Date })
	return list
}
