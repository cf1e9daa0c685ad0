package store

import "expensebook/internal/core"

// Action is a state transition request. The set of actions is closed.
type Action interface {
	Type() string
	action()
}

type (
	// AddExpense appends an expense to a month.
	AddExpense struct {
		Month   core.Month
		Expense core.Expense
	}

	// EditExpense replaces the expense at Index.
	EditExpense struct {
		Month   core.Month
		Index   int
		Expense core.Expense
	}

	// DeleteExpense removes the expense at Index. Out-of-range indexes
	// remove nothing.
	DeleteExpense struct {
		Month core.Month
		Index int
	}

	// SaveSummary sets a month's summary text, empty included.
	SaveSummary struct {
		Month core.Month
		Text  string
	}

	// ImportData replaces expenses, summaries and the workbook snapshot.
	ImportData struct {
		Expenses  core.Expenses
		Summaries core.Summaries
		Workbook  []byte
	}

	// Load replaces the whole state and marks it loaded.
	Load struct {
		State State
	}
)

func (AddExpense) Type() string    { return "ADD_EXPENSE" }
func (EditExpense) Type() string   { return "EDIT_EXPENSE" }
func (DeleteExpense) Type() string { return "DELETE_EXPENSE" }
func (SaveSummary) Type() string   { return "SAVE_SUMMARY" }
func (ImportData) Type() string    { return "IMPORT_DATA" }
func (Load) Type() string          { return "LOAD" }

func (AddExpense) action()    {}
func (EditExpense) action()   {}
func (DeleteExpense) action() {}
func (SaveSummary) action()   {}
func (ImportData) action()    {}
func (Load) action()          {}
