// Package aggregate derives totals and breakdowns from an expense
// collection. Every function is pure: inputs are never modified.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"expensebook/internal/core"
)

var hundred = decimal.NewFromInt(100)

func sum(list []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range list {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return total
}

// MonthTotal returns the sum of amounts recorded in month m.
func MonthTotal(expenses core.Expenses, m core.Month) float64 {
	return sum(expenses.For(m)).InexactFloat64()
}

// YearTotal sums every month in calendar order.
func YearTotal(expenses core.Expenses) float64 {
	total := decimal.Zero
	for _, m := range core.Months {
		total = total.Add(sum(expenses.For(m)))
	}
	return total.InexactFloat64()
}

// MonthlyTotals returns a total for each of the twelve months, zero-filled.
func MonthlyTotals(expenses core.Expenses) map[core.Month]float64 {
	out := make(map[core.Month]float64, len(core.Months))
	for _, m := range core.Months {
		out[m] = MonthTotal(expenses, m)
	}
	return out
}

// CategoryTotals groups spend by primary category across all months.
func CategoryTotals(expenses core.Expenses) map[string]float64 {
	return groupBy(expenses, func(e core.Expense) (string, bool) {
		return e.Primary, true
	})
}

// SubcategoryTotals groups spend by secondary category. Records without a
// secondary category are left out.
func SubcategoryTotals(expenses core.Expenses) map[string]float64 {
	return groupBy(expenses, func(e core.Expense) (string, bool) {
		if strings.TrimSpace(e.Secondary) == "" {
			return "", false
		}
		return e.Secondary, true
	})
}

func groupBy(expenses core.Expenses, key func(core.Expense) (string, bool)) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for _, m := range core.Months {
		for _, e := range expenses.For(m) {
			k, ok := key(e)
			if !ok {
				continue
			}
			acc[k] = acc[k].Add(decimal.NewFromFloat(e.Amount))
		}
	}
	out := make(map[string]float64, len(acc))
	for k, v := range acc {
		out[k] = v.InexactFloat64()
	}
	return out
}

// TotalEntries counts records across all months.
func TotalEntries(expenses core.Expenses) int {
	n := 0
	for _, m := range core.Months {
		n += len(expenses.For(m))
	}
	return n
}

// MostExpensiveMonth returns the display name of the month with the
// strictly greatest total. Ties go to the earlier month and an all-zero
// year reports January.
func MostExpensiveMonth(totals map[core.Month]float64) string {
	best := core.Jan
	max := 0.0
	for _, m := range core.Months {
		if totals[m] > max {
			max = totals[m]
			best = m
		}
	}
	return best.Name()
}

// ActiveMonthsCount counts months with a positive total, never less than 1.
func ActiveMonthsCount(totals map[core.Month]float64) int {
	n := 0
	for _, m := range core.Months {
		if totals[m] > 0 {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// MonthlyAverage divides the year total by the number of active months.
func MonthlyAverage(expenses core.Expenses) float64 {
	active := ActiveMonthsCount(MonthlyTotals(expenses))
	return decimal.NewFromFloat(YearTotal(expenses)).
		Div(decimal.NewFromInt(int64(active))).
		InexactFloat64()
}

// Filter restricts FilteredTotal. Zero fields do not restrict.
type Filter struct {
	Month    core.Month `json:"month,omitempty"`
	Category string     `json:"category,omitempty"`
}

// FilteredTotal sums records matching both the month and the primary
// category of f.
func FilteredTotal(expenses core.Expenses, f Filter) float64 {
	total := decimal.Zero
	for _, m := range core.Months {
		if f.Month != "" && f.Month != m {
			continue
		}
		for _, e := range expenses.For(m) {
			if f.Category != "" && e.Primary != f.Category {
				continue
			}
			total = total.Add(decimal.NewFromFloat(e.Amount))
		}
	}
	return total.InexactFloat64()
}

// SortDescByAmount turns a name to amount mapping into a list ordered by
// amount, largest first. Non-positive amounts are dropped and equal amounts
// are ordered by name.
func SortDescByAmount(totals map[string]float64) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		if amount > 0 {
			out = append(out, core.CategoryAmount{Name: name, Amount: amount})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FormatCurrency renders amount as "€ 12.50".
func FormatCurrency(amount float64) string {
	return "€ " + decimal.NewFromFloat(amount).StringFixed(2)
}

// PercentOf returns part as a percentage of total with one decimal.
// A non-positive total yields "0.0".
func PercentOf(part, total float64) string {
	if total <= 0 {
		return "0.0"
	}
	return decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(total)).
		Mul(hundred).
		StringFixed(1)
}
