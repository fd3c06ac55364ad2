// Package date provides the EDATE and EOMONTH commands.
package date

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/dates"
	"github.com/klytics/xlnt/internal/output"
)

// NewCommand returns the date subcommand group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "date",
		Short: "Spreadsheet-style month arithmetic",
		Long: `Month arithmetic with spreadsheet semantics.

Example:
  xlnt date edate 2021-01-31 1     # 2021-02-28
  xlnt date eomonth 2020-01-15 1   # 2020-02-29
  xlnt date edate -- 2021-03-31 -1 # negative offsets follow --`,
	}

	cmd.AddCommand(newShiftCommand("edate", "Same day of month, shifted by a number of months", dates.EDate))
	cmd.AddCommand(newShiftCommand("eomonth", "Last day of the month, shifted by a number of months", dates.EOMonth))

	return cmd
}

type dateResult struct {
	Function string `json:"function"`
	Start    string `json:"start"`
	Months   int    `json:"months"`
	Result   string `json:"result"`
}

func newShiftCommand(name, short string, fn func(time.Time, int) time.Time) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <YYYY-MM-DD> <months>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			start, err := dates.ParseDate(args[0])
			if err != nil {
				return err
			}
			months, err := dates.ParseOffset(args[1])
			if err != nil {
				return err
			}

			result := fn(start, months)
			if jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "date "+name, dateResult{
					Function: name,
					Start:    start.Format(dates.Layout),
					Months:   months,
					Result:   result.Format(dates.Layout),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Format(dates.Layout))
			return nil
		},
	}
}
