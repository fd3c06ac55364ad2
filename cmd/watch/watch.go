// Package watch provides the "xlnt watch" commands that recompute a measure
// whenever a workbook is saved.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	"github.com/klytics/xlnt/internal/output"
	w "github.com/klytics/xlnt/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand(env *cli.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompute a measure whenever a workbook changes",
		Long: `Watch workbook files or directories and recompute XNPV, XIRR or
SUMPRODUCT over a range each time a workbook is saved.

Example:
  xlnt watch start model.xlsx --measure xirr --sheet Flows --range A2:B9
  xlnt watch start ./models --measure xnpv --rate 0.08 --range A2:B20
  xlnt watch status
  xlnt watch stop`,
	}

	cmd.AddCommand(newStartCmd(env))
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func newStartCmd(env *cli.Env) *cobra.Command {
	var (
		measure    cli.Measure
		extensions []string
		pattern    string
		recursive  bool
		debounce   int
	)

	cmd := &cobra.Command{
		Use:   "start <file-or-directory> [...]",
		Short: "Start watching workbooks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if err := measure.Validate(); err != nil {
				return err
			}

			cfg := w.Config{
				Paths: args,
				Rules: []w.Rule{{
					ID:         "default",
					Pattern:    pattern,
					Extensions: extensions,
					Measure:    measure.Kind,
					Enabled:    true,
				}},
				Recursive: recursive,
				Debounce:  debounce,
			}

			watcher, err := w.New(cfg, env.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			watcher.Handler = func(path string, rule w.Rule) (string, error) {
				// Drop the cached copy so the saved file is read again.
				if b, ok := env.Registry().FindBook(path); ok {
					_ = b.Close(false)
				}
				v, err := env.Compute(path, measure)
				stamp := time.Now().Format("15:04:05")
				if err != nil {
					if jsonOut {
						output.PrintJSONError(out, "watch", fmt.Errorf("%s: %w", path, err), cli.ExitCode(err))
					} else {
						color.New(color.FgRed).Fprintf(out, "[%s] %s: %v\n", stamp, path, err)
					}
					return "", err
				}
				result := output.FormatNumber(v, env.Config.Output.Precision)
				if jsonOut {
					output.PrintJSON(out, "watch", map[string]any{"path": path, "measure": measure.Kind, "value": v})
				} else {
					fmt.Fprintf(out, "[%s] %s %s = %s\n", stamp, path, strings.ToUpper(measure.Kind), result)
				}
				return result, nil
			}

			configDir := w.DefaultConfigDir()
			if err := w.WritePIDFile(configDir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not write PID file: %v\n", err)
			}
			defer w.RemovePIDFile(configDir)
			w.SaveConfig(configDir, cfg)

			if !jsonOut {
				fmt.Fprintf(out, "Watching %d path(s) for %s of %s\n", len(args), strings.ToUpper(measure.Kind), strings.Join(measure.Ranges, ", "))
				fmt.Fprintln(out, "Press Ctrl+C to stop")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			return watcher.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&measure.Kind, "measure", cli.MeasureXIRR, "Measure to recompute: xnpv, xirr, sumproduct")
	cmd.Flags().StringVar(&measure.Sheet, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().StringArrayVar(&measure.Ranges, "range", nil, "Range to read; repeat for sumproduct")
	cmd.Flags().Float64Var(&measure.Rate, "rate", 0, "Discount rate for xnpv")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Workbook extensions to watch (default: .xlsx,.xlsm)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob on file names, e.g. 'model_*.xlsx'")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", w.DefaultDebounce, "Debounce interval in milliseconds")

	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := w.DefaultConfigDir()
			pid, err := w.ReadPIDFile(configDir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(configDir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}

			w.RemovePIDFile(configDir)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), "watch stop", map[string]any{"stopped": true, "pid": pid})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := w.DefaultConfigDir()
			out := cmd.OutOrStdout()

			pid, err := w.ReadPIDFile(configDir)
			running := err == nil
			if running {
				process, err := os.FindProcess(pid)
				if err != nil || process.Signal(syscall.Signal(0)) != nil {
					running = false
					w.RemovePIDFile(configDir)
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if !running {
				if jsonOut {
					return output.PrintJSON(out, "watch status", map[string]any{"running": false})
				}
				fmt.Fprintln(out, "Watcher is not running")
				return nil
			}

			cfg, _ := w.LoadConfig(configDir)
			if jsonOut {
				status := map[string]any{"running": true, "pid": pid}
				if cfg != nil {
					status["config"] = cfg
				}
				return output.PrintJSON(out, "watch status", status)
			}

			fmt.Fprintf(out, "Watcher is running (PID %d)\n", pid)
			if cfg != nil {
				fmt.Fprintf(out, "  Paths:     %s\n", strings.Join(cfg.Paths, ", "))
				fmt.Fprintf(out, "  Recursive: %v\n", cfg.Recursive)
				fmt.Fprintf(out, "  Debounce:  %dms\n", cfg.Debounce)
				for _, r := range cfg.Rules {
					fmt.Fprintf(out, "  [%s] measure=%s ext=%v pattern=%q\n", r.ID, r.Measure, r.Extensions, r.Pattern)
				}
			}
			return nil
		},
	}
}
