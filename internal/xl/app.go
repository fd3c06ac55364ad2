package xl

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Iterative calculation defaults of the host application.
const (
	DefaultCalcIterations = 100
	DefaultCalcMaxChange  = 0.001
)

// AppOptions configures a launched application.
type AppOptions struct {
	// AddBook creates a blank workbook on launch.
	AddBook bool
}

// CalcSettings controls iterative calculation of circular references.
type CalcSettings struct {
	Iterative     bool    `json:"iterative"`
	MaxIterations int     `json:"maxIterations"`
	MaxChange     float64 `json:"maxChange"`
}

// App is one running application instance holding open workbooks.
type App struct {
	id       int
	registry *Registry
	logger   zerolog.Logger

	mu       sync.Mutex
	books    []*Book
	calc     CalcSettings
	untitled int
	quit     bool
}

func newApp(r *Registry, id int, logger zerolog.Logger) *App {
	return &App{
		id:       id,
		registry: r,
		logger:   logger.With().Int("app", id).Logger(),
		calc: CalcSettings{
			MaxIterations: DefaultCalcIterations,
			MaxChange:     DefaultCalcMaxChange,
		},
	}
}

// ID identifies the application within its registry.
func (a *App) ID() int { return a.id }

// Running reports whether the application has not quit.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.quit
}

// Books returns the open workbooks in opening order.
func (a *App) Books() []*Book {
	a.mu.Lock()
	defer a.mu.Unlock()
	books := make([]*Book, len(a.books))
	copy(books, a.books)
	return books
}

// BookCount returns the number of open workbooks.
func (a *App) BookCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.books)
}

// AddBook creates a new, unsaved workbook named BookN.
func (a *App) AddBook() (*Book, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quit {
		return nil, ErrAppQuit
	}
	a.untitled++
	name := fmt.Sprintf("Book%d", a.untitled)
	f := excelize.NewFile(a.fileOptions())
	b := newBook(a, f, name, "", false)
	a.books = append(a.books, b)
	a.logger.Debug().Str("book", name).Msg("added workbook")
	return b, nil
}

// Open opens the workbook at path. When that workbook is already open in any
// application of the registry, the open instance is returned unchanged.
func (a *App) Open(path string, opts OpenOptions) (*Book, error) {
	if !a.Running() {
		return nil, ErrAppQuit
	}
	if b, ok := a.registry.FindBook(path); ok {
		a.logger.Debug().Str("book", b.FullName()).Msg("workbook already open")
		return b, nil
	}

	fullName := normalizePath(path)
	if _, err := os.Stat(fullName); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}

	a.mu.Lock()
	fileOpts := a.fileOptions()
	a.mu.Unlock()

	f, err := excelize.OpenFile(fullName, fileOpts)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	if opts.UpdateLinks {
		if err := f.UpdateLinkedValue(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("could not update links in %s: %w", path, err)
		}
	}

	b := newBook(a, f, "", fullName, opts.ReadOnly)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quit {
		_ = f.Close()
		return nil, ErrAppQuit
	}
	a.books = append(a.books, b)
	a.logger.Debug().Str("book", fullName).Bool("read_only", opts.ReadOnly).Msg("opened workbook")
	return b, nil
}

// EnableIterativeCalculations turns iterative calculation on or off.
// maxIterations and maxChange apply while it is on; zero values select the
// defaults of 100 iterations and 0.001.
func (a *App) EnableIterativeCalculations(enabled bool, maxIterations int, maxChange float64) error {
	if maxIterations == 0 {
		maxIterations = DefaultCalcIterations
	}
	if maxChange == 0 {
		maxChange = DefaultCalcMaxChange
	}
	if maxIterations < 0 || maxIterations > 32767 {
		return fmt.Errorf("max iterations must be between 1 and 32767, got %d", maxIterations)
	}
	if maxChange < 0 || math.IsNaN(maxChange) || math.IsInf(maxChange, 0) {
		return fmt.Errorf("max change must be a positive number, got %v", maxChange)
	}

	a.mu.Lock()
	if a.quit {
		a.mu.Unlock()
		return ErrAppQuit
	}
	before := a.fileOptions()
	a.calc = CalcSettings{Iterative: enabled, MaxIterations: maxIterations, MaxChange: maxChange}
	after := a.fileOptions()
	books := make([]*Book, len(a.books))
	copy(books, a.books)
	a.mu.Unlock()

	a.logger.Debug().Bool("iterative", enabled).Int("max_iterations", maxIterations).Float64("max_change", maxChange).Msg("calculation settings changed")

	// excelize reads the iteration limit from the options a file was opened
	// with, so open workbooks are reopened to pick up the change.
	if before.MaxCalcIterations == after.MaxCalcIterations {
		return nil
	}
	for _, b := range books {
		if err := b.reopen(after); err != nil {
			return err
		}
	}
	return nil
}

// CalcSettings returns the current calculation settings.
func (a *App) CalcSettings() CalcSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calc
}

// Quit closes every workbook without saving and removes the application
// from its registry. Quitting twice is a no-op.
func (a *App) Quit() error {
	a.mu.Lock()
	if a.quit {
		a.mu.Unlock()
		return nil
	}
	a.quit = true
	books := a.books
	a.books = nil
	a.mu.Unlock()

	var firstErr error
	for _, b := range books {
		if err := b.release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.registry.remove(a)
	a.logger.Debug().Int("books", len(books)).Msg("application quit")
	return firstErr
}

// detach removes b from the open workbooks.
func (a *App) detach(b *Book) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, ob := range a.books {
		if ob == b {
			a.books = append(a.books[:i], a.books[i+1:]...)
			return
		}
	}
}

// fileOptions must be called with a.mu held.
func (a *App) fileOptions() excelize.Options {
	var opts excelize.Options
	if a.calc.Iterative {
		opts.MaxCalcIterations = uint(a.calc.MaxIterations)
	}
	return opts
}
