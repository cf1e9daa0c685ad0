package workbook

import (
	"regexp"
	"strconv"
	"strings"

	"expensebook/internal/core"
)

// Month sheet columns.
const (
	colName = iota
	colDate
	colAmount
	colCurrency
	colEU
	colPrimary
	colSecondary
)

// firstDataRow is the zero-based index of the first expense row; the two
// rows above it are headers and metadata.
const firstDataRow = 2

// RowStatus tells whether a row became an expense and, if not, why.
type RowStatus int

const (
	Decoded RowStatus = iota
	SkipBlankName
	SkipNonPositiveAmount
)

func (s RowStatus) String() string {
	switch s {
	case Decoded:
		return "decoded"
	case SkipBlankName:
		return "blank name"
	case SkipNonPositiveAmount:
		return "non-positive amount"
	default:
		return "unknown"
	}
}

// RowResult is the outcome of decoding one sheet row. Expense is only
// meaningful when Status is Decoded.
type RowResult struct {
	Status  RowStatus
	Expense core.Expense
}

// OK reports whether the row produced an expense.
func (r RowResult) OK() bool { return r.Status == Decoded }

// DecodeRow maps a month sheet row to an expense.
//
// The day defaults to 1 when blank or not a number. The amount is read
// from the EU column and falls back to the Amount column only when EU is
// blank. A blank primary category becomes OtherExpenses.
func DecodeRow(cells []string) RowResult {
	name := cell(cells, colName)
	if strings.TrimSpace(name) == "" {
		return RowResult{Status: SkipBlankName}
	}

	day := 1
	if raw := cell(cells, colDate); !blank(raw) {
		if d, ok := leadingInt(raw); ok {
			day = d
		}
	}

	var amount float64
	switch {
	case !blank(cell(cells, colEU)):
		amount = leadingFloat(cell(cells, colEU))
	case !blank(cell(cells, colAmount)):
		amount = leadingFloat(cell(cells, colAmount))
	}
	if !(amount > 0) {
		return RowResult{Status: SkipNonPositiveAmount}
	}

	primary := cell(cells, colPrimary)
	if blank(primary) {
		primary = core.OtherExpenses
	}

	return RowResult{
		Status: Decoded,
		Expense: core.Expense{
			Name:      name,
			Date:      day,
			Amount:    amount,
			Primary:   primary,
			Secondary: cell(cells, colSecondary),
		},
	}
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

var (
	leadingIntRe   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// leadingInt parses the integer prefix of s, so "12th" reads as 12.
func leadingInt(s string) (int, bool) {
	m := leadingIntRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingFloat parses the numeric prefix of s. Unparsable input reads as 0.
func leadingFloat(s string) float64 {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
