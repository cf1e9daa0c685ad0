package aggregate

import (
	"testing"

	"expensebook/internal/core"
)

func sample() core.Expenses {
	return core.Expenses{
		core.Jan: {
			{Name: "Rent", Date: 1, Amount: 1200, Primary: "Housing", Secondary: "Rent"},
			{Name: "Coffee", Date: 5, Amount: 3.50, Primary: "Out", Secondary: "Bar"},
		},
		core.Mar: {
			{Name: "Train", Date: 2, Amount: 0.1, Primary: "Transport", Secondary: "Train"},
			{Name: "Bus", Date: 3, Amount: 0.2, Primary: "Transport", Secondary: "  "},
		},
	}
}

func TestTotals(t *testing.T) {
	ex := sample()
	if got := MonthTotal(ex, core.Jan); got != 1203.50 {
		t.Fatalf("jan total = %v", got)
	}
	if got := MonthTotal(ex, core.Mar); got != 0.3 {
		t.Fatalf("mar total = %v (decimal sums should be exact)", got)
	}
	if got := MonthTotal(ex, core.Feb); got != 0 {
		t.Fatalf("feb total = %v", got)
	}
	if got := YearTotal(ex); got != 1203.8 {
		t.Fatalf("year total = %v", got)
	}
	if got := TotalEntries(ex); got != 4 {
		t.Fatalf("entries = %d", got)
	}
}

func TestYearTotalMatchesMonthSum(t *testing.T) {
	ex := sample()
	totals := MonthlyTotals(ex)
	if len(totals) != 12 {
		t.Fatalf("monthly totals must be zero-filled, got %d entries", len(totals))
	}
	var s float64
	for _, m := range core.Months {
		s += MonthTotal(ex, m)
	}
	if s != YearTotal(ex) {
		t.Fatalf("year %v != sum of months %v", YearTotal(ex), s)
	}
}

func TestActiveMonthsAndAverage(t *testing.T) {
	empty := core.Expenses{}
	if n := ActiveMonthsCount(MonthlyTotals(empty)); n != 1 {
		t.Fatalf("active months floor = %d", n)
	}
	if avg := MonthlyAverage(empty); avg != 0 {
		t.Fatalf("empty average = %v", avg)
	}
	ex := sample()
	if n := ActiveMonthsCount(MonthlyTotals(ex)); n != 2 {
		t.Fatalf("active months = %d", n)
	}
	if avg := MonthlyAverage(ex); avg != 601.9 {
		t.Fatalf("average = %v", avg)
	}
}

func TestMostExpensiveMonth(t *testing.T) {
	if got := MostExpensiveMonth(MonthlyTotals(core.Expenses{})); got != "January" {
		t.Fatalf("all-zero year should report January, got %q", got)
	}
	totals := map[core.Month]float64{core.Apr: 10, core.Jun: 10, core.Feb: 5}
	if got := MostExpensiveMonth(totals); got != "April" {
		t.Fatalf("tie should go to the earlier month, got %q", got)
	}
}

func TestSubcategoryTotalsSkipsBlank(t *testing.T) {
	subs := SubcategoryTotals(sample())
	for k := range subs {
		if k == "" || k == "  " {
			t.Fatalf("blank secondary bucket present: %q", k)
		}
	}
	if subs["Rent"] != 1200 || subs["Bar"] != 3.5 || len(subs) != 3 {
		t.Fatalf("unexpected subcategory totals: %v", subs)
	}
	cats := CategoryTotals(sample())
	if cats["Transport"] != 0.3 {
		t.Fatalf("transport = %v", cats["Transport"])
	}
}

func TestFilteredTotal(t *testing.T) {
	ex := sample()
	tests := []struct {
		name string
		f    Filter
		want float64
	}{
		{"month and category", Filter{Month: core.Jan, Category: "Housing"}, 1200},
		{"category only", Filter{Category: "Out"}, 3.50},
		{"month only", Filter{Month: core.Mar}, 0.3},
		{"none", Filter{}, 1203.8},
		{"no match", Filter{Month: core.Feb, Category: "Out"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilteredTotal(ex, tt.f); got != tt.want {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestSortDescByAmount(t *testing.T) {
	got := SortDescByAmount(map[string]float64{"b": 5, "a": 5, "c": 9, "zero": 0, "neg": -1})
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: got %q want %q", i, got[i].Name, name)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatCurrency(12.5); got != "€ 12.50" {
		t.Fatalf("FormatCurrency = %q", got)
	}
	if got := FormatCurrency(0); got != "€ 0.00" {
		t.Fatalf("FormatCurrency(0) = %q", got)
	}
	for _, part := range []float64{0, 1, 1e9} {
		if got := PercentOf(part, 0); got != "0.0" {
			t.Fatalf("PercentOf(%v, 0) = %q", part, got)
		}
	}
	if got := PercentOf(1, 3); got != "33.3" {
		t.Fatalf("PercentOf(1, 3) = %q", got)
	}
	if got := PercentOf(50, 200); got != "25.0" {
		t.Fatalf("PercentOf(50, 200) = %q", got)
	}
}

func TestBuildDashboard(t *testing.T) {
	d := BuildDashboard(sample(), Filter{Category: "Out"})
	if d.YearTotal != 1203.8 || d.Entries != 4 || d.TopMonth != "January" {
		t.Fatalf("unexpected dashboard header: %+v", d)
	}
	if len(d.Months) != 12 || d.Months[0].Amount != 1203.5 {
		t.Fatalf("unexpected months: %+v", d.Months)
	}
	if d.Categories[0].Name != "Housing" || d.Categories[0].Emoji == "" || d.Categories[0].Percent != "99.7" {
		t.Fatalf("unexpected top category: %+v", d.Categories[0])
	}
	if d.FilteredTotal != 3.5 {
		t.Fatalf("filtered total = %v", d.FilteredTotal)
	}
}
