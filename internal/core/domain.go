package core

import (
	"errors"
	"strings"
)

type (
	// Expense is one spending record. Date is the day of the month.
	Expense struct {
		Name      string  `json:"name"`
		Date      int     `json:"date"`
		Amount    float64 `json:"amount"`
		Primary   string  `json:"primary"`   // Primary category
		Secondary string  `json:"secondary"` // Secondary category, may be empty
	}

	// Expenses groups expense lists by month. An absent month and an empty
	// list are equivalent.
	Expenses map[Month][]Expense

	// Summaries holds the free-text reflection written for each month.
	Summaries map[Month]string
)

var (
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty expense name")
	ErrNameTooLong      = errors.New("expense name too long (max 200 characters)")
	ErrUnknownPrimary   = errors.New("unknown primary category")
	ErrUnknownSecondary = errors.New("unknown secondary category")
)

// Validate checks an expense entered by a user. Imported rows are not
// validated this strictly.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return ErrNameTooLong
	}
	if e.Date < 1 || e.Date > 31 {
		return ErrInvalidDay
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !IsCategory(e.Primary) {
		return ErrUnknownPrimary
	}
	if e.Secondary != "" && !IsSubcategory(e.Primary, e.Secondary) {
		return ErrUnknownSecondary
	}
	return nil
}

// For returns the list stored for m; nil when the month is absent.
func (e Expenses) For(m Month) []Expense {
	return e[m]
}

// Count returns the number of records across all months.
func (e Expenses) Count() int {
	n := 0
	for _, list := range e {
		n += len(list)
	}
	return n
}

// Clone returns a copy whose lists can be changed without touching e.
func (e Expenses) Clone() Expenses {
	out := make(Expenses, len(e))
	for m, list := range e {
		out[m] = append([]Expense(nil), list...)
	}
	return out
}

// For returns the summary for m, or "" when none was written.
func (s Summaries) For(m Month) string {
	return s[m]
}

func (s Summaries) Clone() Summaries {
	out := make(Summaries, len(s))
	for m, text := range s {
		out[m] = text
	}
	return out
}
