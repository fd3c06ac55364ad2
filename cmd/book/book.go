// Package book provides commands that drive workbooks through the xl facade.
package book

import (
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
)

// NewCommand returns the book subcommand group.
func NewCommand(env *cli.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Inspect, read, calculate and copy sheets of .xlsx workbooks",
		Long: `Commands that open a workbook the way a spreadsheet application would:
an already open workbook is reused, read-only by default (book.read_only).`,
	}

	cmd.AddCommand(newInfoCommand(env))
	cmd.AddCommand(newReadCommand(env))
	cmd.AddCommand(newCalcCommand(env))
	cmd.AddCommand(newCopySheetCommand(env))

	return cmd
}
