// Package workbook reads and writes the expense spreadsheet: one sheet per
// month plus a Summaries sheet.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"expensebook/internal/core"
)

// ContentType is the MIME type of exported workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const summariesSheet = "Summaries"

// Columns written to every data row; the last three only exist in the
// header.
const dataColumns = 10

var (
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
	ErrBusy               = errors.New("another import or export is in progress")
)

var (
	headerRow   = []interface{}{"Expense name", "Date", "Amount", "Curr", "EU", "Primary", "Secondary", "Sum", "EURCHF", "USDCHF"}
	metadataRow = []interface{}{"", "", "", "", "", "", "", "", "0.93", "0.8084116"}
)

// Result is what an import produces. Months without rows are absent from
// Expenses.
type Result struct {
	Expenses  core.Expenses
	Summaries core.Summaries
	Raw       []byte
}

// FileName returns the export file name for year, dated on day.
func FileName(year int, day time.Time) string {
	return fmt.Sprintf("%d - Expenses - %s.xlsx", year, day.Format("2006-01-02"))
}

// Import parses a workbook. Sheets that are missing contribute nothing; a
// file that cannot be opened as a workbook returns ErrUnreadableWorkbook.
func Import(r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read workbook: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	res := Result{
		Expenses:  core.Expenses{},
		Summaries: core.Summaries{},
		Raw:       raw,
	}

	for _, m := range core.Months {
		name, ok := monthSheet(sheets, m)
		if !ok {
			continue
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return Result{}, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableWorkbook, name, err)
		}
		var list []core.Expense
		for i := firstDataRow; i < len(rows); i++ {
			if row := DecodeRow(rows[i]); row.OK() {
				list = append(list, row.Expense)
			}
		}
		if len(list) == 0 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].Date < list[j].Date })
		res.Expenses[m] = list
	}

	if name, ok := findFold(sheets, summariesSheet); ok {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return Result{}, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableWorkbook, name, err)
		}
		for i := 1; i < len(rows); i++ {
			id, text := cell(rows[i], 0), cell(rows[i], 1)
			if id == "" || text == "" {
				continue
			}
			key := []rune(strings.ToLower(id))
			if len(key) > 3 {
				key = key[:3]
			}
			if m := core.Month(string(key)); m.Valid() {
				res.Summaries[m] = text
			}
		}
	}
	return res, nil
}

// Export serializes expenses and summaries. With a snapshot from a prior
// import the snapshot's sheets are patched in place so unmodelled content
// survives; without one a fresh workbook is built. The Summaries sheet is
// always rewritten.
func Export(expenses core.Expenses, summaries core.Summaries, snapshot []byte) ([]byte, error) {
	var (
		f   *excelize.File
		err error
	)
	if snapshot != nil {
		f, err = excelize.OpenReader(bytes.NewReader(snapshot))
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot: %v", ErrUnreadableWorkbook, err)
		}
		err = patchMonths(f, expenses)
	} else {
		f = excelize.NewFile()
		err = freshMonths(f, expenses)
	}
	defer f.Close()
	if err != nil {
		return nil, err
	}

	if err := writeSummaries(f, summaries); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func freshMonths(f *excelize.File, expenses core.Expenses) error {
	first := f.GetSheetName(0)
	for i, m := range core.Months {
		name := m.Short()
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeTemplate(f, name); err != nil {
			return err
		}
		if err := writeExpenses(f, name, expenses.For(m), true); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	return nil
}

func patchMonths(f *excelize.File, expenses core.Expenses) error {
	sheets := f.GetSheetList()
	for _, m := range core.Months {
		list := expenses.For(m)
		name, ok := monthSheet(sheets, m)
		if !ok {
			if len(list) == 0 {
				continue
			}
			name = m.Short()
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("create sheet %s: %w", name, err)
			}
			if err := writeTemplate(f, name); err != nil {
				return err
			}
			if err := writeExpenses(f, name, list, true); err != nil {
				return err
			}
			continue
		}
		if err := clearData(f, name); err != nil {
			return err
		}
		if err := writeExpenses(f, name, list, false); err != nil {
			return err
		}
	}
	return nil
}

func writeTemplate(f *excelize.File, sheet string) error {
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A2", &metadataRow); err != nil {
		return fmt.Errorf("write metadata %s: %w", sheet, err)
	}
	return nil
}

// clearData empties the first ten columns of every data row.
func clearData(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for r := firstDataRow; r < len(rows); r++ {
		for c := 0; c < dataColumns; c++ {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellFormula(sheet, ref, ""); err != nil {
				return fmt.Errorf("clear %s!%s: %w", sheet, ref, err)
			}
			if err := f.SetCellValue(sheet, ref, nil); err != nil {
				return fmt.Errorf("clear %s!%s: %w", sheet, ref, err)
			}
		}
	}
	return nil
}

// writeExpenses writes one row per expense from the first data row. The
// amount is written twice, in Amount and EU. Full rows also pad the
// trailing Sum and rate columns.
func writeExpenses(f *excelize.File, sheet string, list []core.Expense, full bool) error {
	for i, e := range list {
		row := []interface{}{e.Name, e.Date, e.Amount, "", e.Amount, e.Primary, e.Secondary}
		if full {
			row = append(row, "", "", "")
		}
		ref, err := excelize.CoordinatesToCellName(1, firstDataRow+i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, ref, &row); err != nil {
			return fmt.Errorf("write row %s!%s: %w", sheet, ref, err)
		}
	}
	return nil
}

// writeSummaries replaces any Summaries sheet with a fresh one listing all
// twelve months.
func writeSummaries(f *excelize.File, summaries core.Summaries) error {
	tmp := unusedSheetName(f.GetSheetList(), summariesSheet+"~")
	if _, err := f.NewSheet(tmp); err != nil {
		return fmt.Errorf("create summaries: %w", err)
	}
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, summariesSheet) {
			if err := f.DeleteSheet(name); err != nil {
				return fmt.Errorf("delete summaries: %w", err)
			}
		}
	}
	if err := f.SetSheetName(tmp, summariesSheet); err != nil {
		return fmt.Errorf("rename summaries: %w", err)
	}

	header := []interface{}{"Month", "Summary"}
	if err := f.SetSheetRow(summariesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write summaries: %w", err)
	}
	for i, m := range core.Months {
		row := []interface{}{m.Name(), summaries.For(m)}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summariesSheet, ref, &row); err != nil {
			return fmt.Errorf("write summaries: %w", err)
		}
	}
	return nil
}

// monthSheet finds the sheet for m, trying "Jan", "jan" and "January" in
// that order.
// unusedSheetName returns base, or base with a numeric suffix, such that no
// sheet in sheets already carries the name.
func unusedSheetName(sheets []string, base string) string {
	name := base
	for i := 2; ; i++ {
		if _, taken := findFold(sheets, name); !taken {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

func monthSheet(sheets []string, m core.Month) (string, bool) {
	for _, candidate := range []string{m.Short(), string(m), m.Name()} {
		for _, s := range sheets {
			if s == candidate {
				return s, true
			}
		}
	}
	return "", false
}

func findFold(sheets []string, name string) (string, bool) {
	for _, s := range sheets {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}
