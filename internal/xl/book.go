package xl

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// OpenOptions controls how a workbook file is opened.
type OpenOptions struct {
	// UpdateLinks refreshes values computed from linked formulas on open.
	UpdateLinks bool
	// ReadOnly forbids Save; SaveAs to a new path is still allowed.
	ReadOnly bool
}

// DefaultOpenOptions opens read-only without updating links.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{ReadOnly: true}
}

// Book is an open workbook.
type Book struct {
	app *App

	mu       sync.Mutex
	file     *excelize.File
	name     string
	fullName string
	readOnly bool
	closed   bool
}

func newBook(app *App, f *excelize.File, name, fullName string, readOnly bool) *Book {
	if fullName != "" {
		name = filepath.Base(fullName)
	}
	return &Book{app: app, file: f, name: name, fullName: fullName, readOnly: readOnly}
}

// OpenBook opens path in the first running application of reg, launching one
// if none is running. An already open workbook is returned as is. With an
// empty path a new blank workbook is added instead.
func OpenBook(reg *Registry, path string, opts OpenOptions) (*Book, error) {
	app, err := reg.Attach()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return app.AddBook()
	}
	return app.Open(path, opts)
}

// Name returns the workbook file name, or BookN for an unsaved workbook.
func (b *Book) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// FullName returns the absolute path of the workbook, or its name when it
// has never been saved.
func (b *Book) FullName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fullName == "" {
		return b.name
	}
	return b.fullName
}

// App returns the application holding the workbook.
func (b *Book) App() *App { return b.app }

// ReadOnly reports whether Save is forbidden.
func (b *Book) ReadOnly() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readOnly
}

// Closed reports whether the workbook has been closed.
func (b *Book) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Sheets returns the worksheets in tab order.
func (b *Book) Sheets() ([]*Sheet, error) {
	var sheets []*Sheet
	err := b.withFile(func(f *excelize.File) error {
		for _, name := range f.GetSheetList() {
			sheets = append(sheets, &Sheet{book: b, name: name})
		}
		return nil
	})
	return sheets, err
}

// SheetCount returns the number of worksheets.
func (b *Book) SheetCount() (int, error) {
	var n int
	err := b.withFile(func(f *excelize.File) error {
		n = len(f.GetSheetList())
		return nil
	})
	return n, err
}

// Sheet returns the worksheet with the given name, ignoring case.
func (b *Book) Sheet(name string) (*Sheet, error) {
	var sheet *Sheet
	err := b.withFile(func(f *excelize.File) error {
		list := f.GetSheetList()
		for _, n := range list {
			if strings.EqualFold(n, name) {
				sheet = &Sheet{book: b, name: n}
				return nil
			}
		}
		return fmt.Errorf("%w: %q — available sheets: %v", ErrSheetNotFound, name, list)
	})
	return sheet, err
}

// SheetAt returns the worksheet at the 1-based tab position index.
func (b *Book) SheetAt(index int) (*Sheet, error) {
	var sheet *Sheet
	err := b.withFile(func(f *excelize.File) error {
		list := f.GetSheetList()
		if index < 1 || index > len(list) {
			return fmt.Errorf("%w: index %d out of range 1..%d", ErrSheetNotFound, index, len(list))
		}
		sheet = &Sheet{book: b, name: list[index-1]}
		return nil
	})
	return sheet, err
}

// AddSheet appends a new empty worksheet.
func (b *Book) AddSheet(name string) (*Sheet, error) {
	var sheet *Sheet
	err := b.withFile(func(f *excelize.File) error {
		if idx, err := f.GetSheetIndex(name); err != nil {
			return fmt.Errorf("invalid sheet name %q: %w", name, err)
		} else if idx != -1 {
			return fmt.Errorf("sheet %q already exists", name)
		}
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("could not create sheet %q: %w", name, err)
		}
		sheet = &Sheet{book: b, name: name}
		return nil
	})
	return sheet, err
}

// Save writes the workbook back to its file.
func (b *Book) Save() error {
	return b.withFile(func(f *excelize.File) error {
		if b.readOnly {
			return fmt.Errorf("%w: %s — use SaveAs to write a copy", ErrReadOnly, b.name)
		}
		if b.fullName == "" {
			return fmt.Errorf("%w: %s has never been saved — use SaveAs", ErrReadOnly, b.name)
		}
		if err := f.SaveAs(b.fullName); err != nil {
			return fmt.Errorf("could not save %s: %w", b.fullName, err)
		}
		return nil
	})
}

// SaveAs writes the workbook to path, which becomes its new location. The
// workbook is writable afterwards.
func (b *Book) SaveAs(path string) error {
	fullName := normalizePath(path)
	if other, ok := b.app.registry.FindBook(fullName); ok && other != b {
		return fmt.Errorf("cannot save to %s — another open workbook has that path", path)
	}
	return b.withFile(func(f *excelize.File) error {
		if err := f.SaveAs(fullName); err != nil {
			return fmt.Errorf("could not save %s: %w", path, err)
		}
		b.fullName = fullName
		b.name = filepath.Base(fullName)
		b.readOnly = false
		return nil
	})
}

// Close closes the workbook, saving it first when saveChanges is set. Closing
// the last workbook of an application quits the application.
func (b *Book) Close(saveChanges bool) error {
	if b.Closed() {
		return ErrBookClosed
	}
	if saveChanges {
		if err := b.Save(); err != nil {
			return err
		}
	}
	if b.app.BookCount() == 1 {
		return b.app.Quit()
	}
	b.app.detach(b)
	b.app.logger.Debug().Str("book", b.FullName()).Msg("closed workbook")
	return b.release()
}

// release closes the underlying file. It is safe to call more than once.
func (b *Book) release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.file.Close()
}

// reopen reloads the workbook, unsaved changes included, with opts.
func (b *Book) reopen(opts excelize.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	buf, err := b.file.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("could not reload %s: %w", b.name, err)
	}
	f, err := excelize.OpenReader(buf, opts)
	if err != nil {
		return fmt.Errorf("could not reload %s: %w", b.name, err)
	}
	if b.fullName != "" {
		f.Path = b.fullName
	}
	old := b.file
	b.file = f
	_ = old.Close()
	b.app.logger.Debug().Str("book", b.name).Uint("max_calc_iterations", opts.MaxCalcIterations).Msg("reloaded workbook")
	return nil
}

func (b *Book) withFile(fn func(f *excelize.File) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBookClosed
	}
	return fn(b.file)
}
