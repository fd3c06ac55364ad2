// Package cli holds the state shared by every xlnt command: loaded
// configuration, the logger and the application registry.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/config"
	"github.com/klytics/xlnt/internal/finance"
	"github.com/klytics/xlnt/internal/logging"
	"github.com/klytics/xlnt/internal/output"
	"github.com/klytics/xlnt/internal/xl"
)

// Env is created once per process (or shell session) and handed to every
// command group.
type Env struct {
	Config *config.Config
	Logger zerolog.Logger

	mu       sync.Mutex
	registry *xl.Registry
	stderr   io.Writer
}

// NewEnv returns an Env with default configuration and a silent logger.
// Init replaces both once flags are parsed.
func NewEnv() *Env {
	cfg := config.Defaults()
	return &Env{Config: cfg, Logger: zerolog.Nop(), stderr: os.Stderr}
}

// Init loads configuration and builds the logger. verbose forces debug
// logging; noColor disables ANSI output.
func (e *Env) Init(verbose, noColor bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config from %s: %w", config.ConfigPath(), err)
	}
	e.Config = cfg

	if noColor || !cfg.Output.Color {
		color.NoColor = true
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	e.Logger = logging.NewConsoleLogger(level, e.stderr, color.NoColor)
	return nil
}

// Registry returns the application registry, creating it on first use.
func (e *Env) Registry() *xl.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registry == nil {
		e.registry = xl.NewRegistry(e.Logger)
	}
	return e.registry
}

// Close quits every application started by this Env.
func (e *Env) Close() error {
	e.mu.Lock()
	reg := e.registry
	e.registry = nil
	e.mu.Unlock()
	if reg == nil {
		return nil
	}
	return reg.QuitAll()
}

// OpenOptions returns workbook open options from the book.* settings.
func (e *Env) OpenOptions() xl.OpenOptions {
	return xl.OpenOptions{
		ReadOnly:    e.Config.Book.ReadOnly,
		UpdateLinks: e.Config.Book.UpdateLinks,
	}
}

// OpenBook opens path through the registry. The calc.* settings are applied
// to the application first, so the workbook is read with them.
func (e *Env) OpenBook(path string) (*xl.Book, error) {
	app, err := e.Registry().Attach()
	if err != nil {
		return nil, err
	}
	if e.Config.Calc.Iterative {
		if err := app.EnableIterativeCalculations(true, e.Config.Calc.MaxIterations, e.Config.Calc.MaxChange); err != nil {
			return nil, err
		}
	}
	return xl.OpenBook(e.Registry(), path, e.OpenOptions())
}

// Solver returns an XIRR solver seeded from the finance.* settings.
func (e *Env) Solver() finance.Solver {
	return finance.NewSolver(
		finance.WithGuess(e.Config.Finance.Guess),
		finance.WithMaxIterations(e.Config.Finance.MaxIterations),
		finance.WithTolerance(e.Config.Finance.Tolerance),
	)
}

// Writer returns an output writer for cmd honoring --json and output.precision.
func (e *Env) Writer(cmd *cobra.Command) *output.Writer {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	return output.NewWriter(cmd.OutOrStdout(), jsonFlag, e.Config.Output.Precision)
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return output.ExitOK
	case errors.Is(err, finance.ErrComputation), errors.Is(err, finance.ErrConvergence):
		return output.ExitCalcError
	case errors.Is(err, finance.ErrValidation), errors.Is(err, xl.ErrSheetNotFound), errors.Is(err, xl.ErrReadOnly):
		return output.ExitUserError
	}
	return output.ExitCodeFor(err)
}
