// Package xl is a thin automation facade over excelize workbooks.
//
// A Registry stands in for the set of running spreadsheet application
// instances. It is created by the caller and passed explicitly to anything
// that needs to find or launch an application, so there is no process-wide
// state. Each App owns the workbooks opened through it; closing the last one
// quits the App.
package xl

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrNoApp         = errors.New("no running application")
	ErrAppQuit       = errors.New("application has quit")
	ErrBookClosed    = errors.New("workbook is closed")
	ErrReadOnly      = errors.New("workbook is read-only")
	ErrSheetNotFound = errors.New("sheet not found")
)

// Registry tracks running application instances.
type Registry struct {
	mu     sync.Mutex
	apps   []*App
	nextID int
	logger zerolog.Logger
}

// NewRegistry returns an empty registry. Pass zerolog.Nop() to silence it.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Launch starts a new application instance and registers it.
func (r *Registry) Launch(opts AppOptions) (*App, error) {
	r.mu.Lock()
	r.nextID++
	app := newApp(r, r.nextID, r.logger)
	r.apps = append(r.apps, app)
	r.mu.Unlock()

	app.logger.Debug().Bool("add_book", opts.AddBook).Msg("launched application")

	if opts.AddBook {
		if _, err := app.AddBook(); err != nil {
			_ = app.Quit()
			return nil, err
		}
	}
	return app, nil
}

// Apps returns the running applications in launch order.
func (r *Registry) Apps() []*App {
	r.mu.Lock()
	defer r.mu.Unlock()
	apps := make([]*App, len(r.apps))
	copy(apps, r.apps)
	return apps
}

// Count returns the number of running applications.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// Active returns the first running application.
func (r *Registry) Active() (*App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.apps) == 0 {
		return nil, ErrNoApp
	}
	return r.apps[0], nil
}

// Attach returns the first running application, launching one without a
// workbook if none is running.
func (r *Registry) Attach() (*App, error) {
	if app, err := r.Active(); err == nil {
		app.logger.Debug().Msg("attached to running application")
		return app, nil
	}
	return r.Launch(AppOptions{})
}

// FindBook returns the open workbook whose full path matches path, ignoring
// case, in any running application.
func (r *Registry) FindBook(path string) (*Book, bool) {
	want := normalizePath(path)
	for _, app := range r.Apps() {
		for _, b := range app.Books() {
			if strings.EqualFold(b.FullName(), want) {
				return b, true
			}
		}
	}
	return nil, false
}

// IsOpen reports whether the workbook at path is open in any application.
func (r *Registry) IsOpen(path string) bool {
	_, ok := r.FindBook(path)
	return ok
}

// QuitAll quits every running application without saving.
func (r *Registry) QuitAll() error {
	var errs []error
	for _, app := range r.Apps() {
		if err := app.Quit(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) remove(app *App) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.apps {
		if a == app {
			r.apps = append(r.apps[:i], r.apps[i+1:]...)
			return
		}
	}
}

func normalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
