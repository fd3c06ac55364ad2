package xl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/xlnt/internal/dates"
)

// Range is a rectangle of cells on a sheet. Coordinates are 1-based.
type Range struct {
	sheet      *Sheet
	col1, row1 int
	col2, row2 int
}

// Sheet returns the sheet holding the range.
func (r *Range) Sheet() *Sheet { return r.sheet }

// Address returns the range in A1 notation, e.g. "A1:B3" or "C4".
func (r *Range) Address() string {
	first, _ := excelize.CoordinatesToCellName(r.col1, r.row1)
	if r.col1 == r.col2 && r.row1 == r.row2 {
		return first
	}
	last, _ := excelize.CoordinatesToCellName(r.col2, r.row2)
	return first + ":" + last
}

// Shape returns the number of rows and columns.
func (r *Range) Shape() (rows, cols int) {
	return r.row2 - r.row1 + 1, r.col2 - r.col1 + 1
}

// Column returns the i-th column (1-based) of the range, or nil.
func (r *Range) Column(i int) *Range {
	_, cols := r.Shape()
	if i < 1 || i > cols {
		return nil
	}
	c := r.col1 + i - 1
	return &Range{sheet: r.sheet, col1: c, row1: r.row1, col2: c, row2: r.row2}
}

// Value returns the formatted value of the top-left cell.
func (r *Range) Value() (string, error) {
	var v string
	err := r.sheet.book.withFile(func(f *excelize.File) error {
		cell, _ := excelize.CoordinatesToCellName(r.col1, r.row1)
		var err error
		v, err = f.GetCellValue(r.sheet.name, cell)
		return err
	})
	return v, err
}

// Values returns the formatted cell values row by row.
func (r *Range) Values() ([][]string, error) {
	return r.read(func(f *excelize.File, cell string) (string, error) {
		return f.GetCellValue(r.sheet.name, cell)
	})
}

// RawValues returns the unformatted cell values row by row. Dates come back
// as serial numbers.
func (r *Range) RawValues() ([][]string, error) {
	return r.read(func(f *excelize.File, cell string) (string, error) {
		return f.GetCellValue(r.sheet.name, cell, excelize.Options{RawCellValue: true})
	})
}

// Calculate evaluates every cell, computing formulas with the application's
// calculation settings, and returns the results row by row.
func (r *Range) Calculate() ([][]string, error) {
	return r.read(func(f *excelize.File, cell string) (string, error) {
		formula, err := f.GetCellFormula(r.sheet.name, cell)
		if err != nil {
			return "", err
		}
		if formula == "" {
			return f.GetCellValue(r.sheet.name, cell)
		}
		v, err := f.CalcCellValue(r.sheet.name, cell)
		if err != nil {
			return "", fmt.Errorf("could not calculate %s!%s: %w", r.sheet.name, cell, err)
		}
		return v, nil
	})
}

// SetValue writes v into every cell of the range.
func (r *Range) SetValue(v any) error {
	return r.sheet.book.withFile(func(f *excelize.File) error {
		return r.each(func(cell string, _, _ int) error {
			return f.SetCellValue(r.sheet.name, cell, v)
		})
	})
}

// SetValues writes rows starting at the top-left cell. The data must fit
// inside the range.
func (r *Range) SetValues(rows [][]any) error {
	nr, nc := r.Shape()
	if len(rows) > nr {
		return fmt.Errorf("%d rows do not fit in %s", len(rows), r.Address())
	}
	for i, row := range rows {
		if len(row) > nc {
			return fmt.Errorf("row %d has %d values, %s has %d columns", i+1, len(row), r.Address(), nc)
		}
	}
	return r.sheet.book.withFile(func(f *excelize.File) error {
		for i, row := range rows {
			for j, v := range row {
				cell, err := excelize.CoordinatesToCellName(r.col1+j, r.row1+i)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(r.sheet.name, cell, v); err != nil {
					return fmt.Errorf("could not set cell %s: %w", cell, err)
				}
			}
		}
		return nil
	})
}

// SetFormula writes formula into every cell of the range.
func (r *Range) SetFormula(formula string) error {
	formula = strings.TrimPrefix(formula, "=")
	return r.sheet.book.withFile(func(f *excelize.File) error {
		return r.each(func(cell string, _, _ int) error {
			return f.SetCellFormula(r.sheet.name, cell, formula)
		})
	})
}

// Floats returns the numeric cell values in row-major order. Blank cells
// count as zero, as in SUMPRODUCT; text is an error.
func (r *Range) Floats() ([]float64, error) {
	raw, err := r.RawValues()
	if err != nil {
		return nil, err
	}
	var out []float64
	for i, row := range raw {
		for j, v := range row {
			v = strings.TrimSpace(v)
			if v == "" {
				out = append(out, 0)
				continue
			}
			d, err := decimal.NewFromString(v)
			if err != nil {
				cell, _ := excelize.CoordinatesToCellName(r.col1+j, r.row1+i)
				return nil, fmt.Errorf("cell %s!%s is not a number: %q", r.sheet.name, cell, v)
			}
			out = append(out, d.InexactFloat64())
		}
	}
	return out, nil
}

// Dates returns the cell values as calendar dates in row-major order. Cells
// may hold date serial numbers or YYYY-MM-DD text; blank cells are an error.
func (r *Range) Dates() ([]time.Time, error) {
	var use1904 bool
	err := r.sheet.book.withFile(func(f *excelize.File) error {
		props, err := f.GetWorkbookProps()
		if err != nil {
			return err
		}
		use1904 = props.Date1904 != nil && *props.Date1904
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw, err := r.RawValues()
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for i, row := range raw {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(r.col1+j, r.row1+i)
			v = strings.TrimSpace(v)
			if v == "" {
				return nil, fmt.Errorf("cell %s!%s is blank, expected a date", r.sheet.name, cell)
			}
			if serial, err := strconv.ParseFloat(v, 64); err == nil {
				t, err := excelize.ExcelDateToTime(serial, use1904)
				if err != nil {
					return nil, fmt.Errorf("cell %s!%s: %w", r.sheet.name, cell, err)
				}
				out = append(out, dates.Truncate(t))
				continue
			}
			t, err := dates.ParseDate(v)
			if err != nil {
				return nil, fmt.Errorf("cell %s!%s: %w", r.sheet.name, cell, err)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Range) read(get func(f *excelize.File, cell string) (string, error)) ([][]string, error) {
	nr, nc := r.Shape()
	out := make([][]string, nr)
	for i := range out {
		out[i] = make([]string, nc)
	}
	err := r.sheet.book.withFile(func(f *excelize.File) error {
		return r.each(func(cell string, i, j int) error {
			v, err := get(f, cell)
			if err != nil {
				return err
			}
			out[i][j] = v
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// each visits the cells row by row; i and j are offsets within the range.
func (r *Range) each(fn func(cell string, i, j int) error) error {
	for row := r.row1; row <= r.row2; row++ {
		for col := r.col1; col <= r.col2; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return err
			}
			if err := fn(cell, row-r.row1, col-r.col1); err != nil {
				return err
			}
		}
	}
	return nil
}
