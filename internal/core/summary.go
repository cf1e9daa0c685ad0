package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// MonthOverview is the per-month read view: the month's records in date
// order, their total and the month's summary text.
type MonthOverview struct {
	Month    Month     `json:"month"`
	Name     string    `json:"name"`
	Emoji    string    `json:"emoji"`
	Expenses []Expense `json:"expenses"`
	Total    float64   `json:"total"`
	Summary  string    `json:"summary"`
}
