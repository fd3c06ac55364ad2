package xl

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Sheet is a worksheet of an open workbook.
type Sheet struct {
	book *Book
	name string
}

// CopyOptions positions a sheet copy. Indexes are 1-based tab positions of
// the workbook before the copy is made. At most one may be set; with neither
// the copy goes after the last sheet.
type CopyOptions struct {
	Before int
	After  int
}

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// Book returns the workbook holding the sheet.
func (s *Sheet) Book() *Book { return s.book }

// Index returns the 1-based tab position of the sheet.
func (s *Sheet) Index() (int, error) {
	idx := -1
	err := s.book.withFile(func(f *excelize.File) error {
		i, err := f.GetSheetIndex(s.name)
		if err != nil {
			return err
		}
		idx = i
		return nil
	})
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrSheetNotFound, s.name)
	}
	return idx + 1, nil
}

// Range returns the rectangle between cell1 and cell2, e.g. Range("A1", "B3").
// cell2 may be empty for a single cell, and cell1 may also be written as
// "A1:B3". It returns nil when either reference is not a valid cell name.
func (s *Sheet) Range(cell1, cell2 string) *Range {
	if cell2 == "" {
		if first, last, ok := strings.Cut(cell1, ":"); ok {
			cell1, cell2 = first, last
		} else {
			cell2 = cell1
		}
	}
	c1, r1, err := excelize.CellNameToCoordinates(strings.ReplaceAll(cell1, "$", ""))
	if err != nil {
		return nil
	}
	c2, r2, err := excelize.CellNameToCoordinates(strings.ReplaceAll(cell2, "$", ""))
	if err != nil {
		return nil
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return &Range{sheet: s, col1: c1, row1: r1, col2: c2, row2: r2}
}

// Copy duplicates the sheet within its workbook and returns the copy, named
// like "Data (2)". Tables, charts and pictures are not copied.
func (s *Sheet) Copy(opts CopyOptions) (*Sheet, error) {
	if opts.Before != 0 && opts.After != 0 {
		return nil, fmt.Errorf("copy sheet %q: set before or after, not both", s.name)
	}

	var copied *Sheet
	err := s.book.withFile(func(f *excelize.File) error {
		list := f.GetSheetList()
		n := len(list)

		pos := n
		switch {
		case opts.Before != 0:
			if opts.Before < 1 || opts.Before > n {
				return fmt.Errorf("copy sheet %q: before index %d out of range 1..%d", s.name, opts.Before, n)
			}
			pos = opts.Before - 1
		case opts.After != 0:
			if opts.After < 1 || opts.After > n {
				return fmt.Errorf("copy sheet %q: after index %d out of range 1..%d", s.name, opts.After, n)
			}
			pos = opts.After
		}

		from, err := f.GetSheetIndex(s.name)
		if err != nil || from < 0 {
			return fmt.Errorf("%w: %q", ErrSheetNotFound, s.name)
		}

		name := copyName(s.name, list)
		to, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("could not create sheet %q: %w", name, err)
		}
		if err := f.CopySheet(from, to); err != nil {
			return fmt.Errorf("could not copy sheet %q: %w", s.name, err)
		}
		if pos < n {
			if err := f.MoveSheet(name, list[pos]); err != nil {
				return fmt.Errorf("could not move sheet %q: %w", name, err)
			}
		}
		copied = &Sheet{book: s.book, name: name}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.book.app.logger.Debug().Str("sheet", s.name).Str("copy", copied.name).Msg("copied sheet")
	return copied, nil
}

// copyName picks the first free "name (k)" for k >= 2, shortening name to
// stay within the 31 character sheet name limit.
func copyName(name string, existing []string) string {
	taken := func(candidate string) bool {
		for _, e := range existing {
			if strings.EqualFold(e, candidate) {
				return true
			}
		}
		return false
	}
	for k := 2; ; k++ {
		suffix := fmt.Sprintf(" (%d)", k)
		base := name
		for utf8.RuneCountInString(base)+len(suffix) > excelize.MaxSheetNameLength {
			_, size := utf8.DecodeLastRuneInString(base)
			base = base[:len(base)-size]
		}
		if candidate := base + suffix; !taken(candidate) {
			return candidate
		}
	}
}

// UsedRange returns the rectangle from A1 to the last non-empty row and
// column, or nil when the sheet is empty.
func (s *Sheet) UsedRange() (*Range, error) {
	var rows, cols int
	err := s.book.withFile(func(f *excelize.File) error {
		all, err := f.GetRows(s.name)
		if err != nil {
			return err
		}
		for i, row := range all {
			if len(row) > 0 {
				rows = i + 1
			}
			if len(row) > cols {
				cols = len(row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 || cols == 0 {
		return nil, nil
	}
	return &Range{sheet: s, col1: 1, row1: 1, col2: cols, row2: rows}, nil
}
