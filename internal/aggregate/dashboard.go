package aggregate

import "expensebook/internal/core"

// Share is one line of a breakdown: an amount and its share of the year.
type Share struct {
	Name      string  `json:"name"`
	Emoji     string  `json:"emoji,omitempty"`
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
	Percent   string  `json:"percent"`
}

// MonthAmount is a month total in calendar order.
type MonthAmount struct {
	Month  core.Month `json:"month"`
	Name   string     `json:"name"`
	Amount float64    `json:"amount"`
}

// Dashboard is the read model behind the dashboard screen.
type Dashboard struct {
	YearTotal      float64       `json:"year_total"`
	YearFormatted  string        `json:"year_formatted"`
	Months         []MonthAmount `json:"months"`
	Categories     []Share       `json:"categories"`
	Subcategories  []Share       `json:"subcategories"`
	Entries        int           `json:"entries"`
	TopMonth       string        `json:"top_month"`
	ActiveMonths   int           `json:"active_months"`
	MonthlyAverage float64       `json:"monthly_average"`
	Filter         Filter        `json:"filter"`
	FilteredTotal  float64       `json:"filtered_total"`
}

// BuildDashboard computes every dashboard figure in one pass over expenses.
func BuildDashboard(expenses core.Expenses, f Filter) Dashboard {
	totals := MonthlyTotals(expenses)
	year := YearTotal(expenses)

	months := make([]MonthAmount, 0, len(core.Months))
	for _, m := range core.Months {
		months = append(months, MonthAmount{Month: m, Name: m.Name(), Amount: totals[m]})
	}

	return Dashboard{
		YearTotal:      year,
		YearFormatted:  FormatCurrency(year),
		Months:         months,
		Categories:     shares(CategoryTotals(expenses), year, true),
		Subcategories:  shares(SubcategoryTotals(expenses), year, false),
		Entries:        TotalEntries(expenses),
		TopMonth:       MostExpensiveMonth(totals),
		ActiveMonths:   ActiveMonthsCount(totals),
		MonthlyAverage: MonthlyAverage(expenses),
		Filter:         f,
		FilteredTotal:  FilteredTotal(expenses, f),
	}
}

func shares(totals map[string]float64, year float64, withEmoji bool) []Share {
	sorted := SortDescByAmount(totals)
	out := make([]Share, 0, len(sorted))
	for _, c := range sorted {
		s := Share{
			Name:      c.Name,
			Amount:    c.Amount,
			Formatted: FormatCurrency(c.Amount),
			Percent:   PercentOf(c.Amount, year),
		}
		if withEmoji {
			s.Emoji = core.CategoryEmoji(c.Name)
		}
		out = append(out, s)
	}
	return out
}
