// Package cmd contains all CLI commands for the xlnt binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/cmd/book"
	"github.com/klytics/xlnt/cmd/completion"
	cmdconfig "github.com/klytics/xlnt/cmd/config"
	"github.com/klytics/xlnt/cmd/date"
	"github.com/klytics/xlnt/cmd/doctor"
	"github.com/klytics/xlnt/cmd/finance"
	"github.com/klytics/xlnt/cmd/shell"
	"github.com/klytics/xlnt/cmd/version"
	cmdwatch "github.com/klytics/xlnt/cmd/watch"
	"github.com/klytics/xlnt/internal/cli"
	"github.com/klytics/xlnt/internal/output"
)

// NewRootCommand creates the root cobra command with all subcommands
// registered. Every command shares env, and through it one application
// registry.
func NewRootCommand(env *cli.Env) *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
		noColor    bool
	)

	rootCmd := &cobra.Command{
		Use:   "xlnt",
		Short: "Spreadsheet finance functions and workbook automation",
		Long: `xlnt — spreadsheet functions from the terminal.

Compute XNPV, XIRR, SUMPRODUCT, EDATE and EOMONTH with spreadsheet semantics,
directly or over ranges of .xlsx workbooks, and drive workbooks the way a
spreadsheet application would: open, read, calculate, copy sheets, save.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.Init(verbose, noColor)
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(date.NewCommand())
	rootCmd.AddCommand(finance.NewCommand(env))
	rootCmd.AddCommand(book.NewCommand(env))
	rootCmd.AddCommand(cmdwatch.NewCommand(env))
	rootCmd.AddCommand(shell.NewCommand(env, NewRootCommand))
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand(env))
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command, closes any workbooks left open and exits
// with a code matching the error.
func Execute() {
	env := cli.NewEnv()
	rootCmd := NewRootCommand(env)
	err := rootCmd.Execute()
	if cerr := env.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err == nil {
		return
	}

	code := cli.ExitCode(err)
	if jsonFlag, _ := rootCmd.PersistentFlags().GetBool("json"); jsonFlag {
		output.PrintJSONError(os.Stdout, commandName(rootCmd), err, code)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(code)
}

// commandName returns the path of the command that ran, without the binary name.
func commandName(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == root {
		return root.Name()
	}
	return cmd.CommandPath()[len(root.Name())+1:]
}
