package book

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	"github.com/klytics/xlnt/internal/output"
	"github.com/klytics/xlnt/internal/xl"
)

type rangeValues struct {
	Sheet   string     `json:"sheet"`
	Address string     `json:"address"`
	Rows    [][]string `json:"rows"`
}

func newReadCommand(env *cli.Env) *cobra.Command {
	var (
		sheetName string
		address   string
		csvOutput bool
		raw       bool
		pager     bool
	)

	cmd := &cobra.Command{
		Use:   "read <file.xlsx>",
		Short: "Print the values of a range",
		Long:  "Prints cell values of a range, or of the used area of the sheet when --range is omitted. Supports JSON, CSV and table output.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			b, err := env.OpenBook(args[0])
			if err != nil {
				return err
			}
			sheet, err := cli.ResolveSheet(b, sheetName)
			if err != nil {
				return err
			}

			var rng *xl.Range
			if address != "" {
				rng = sheet.Range(address, "")
				if rng == nil {
					return fmt.Errorf("invalid range %q — expected A1 notation like A1:C10", address)
				}
			} else if rng, err = sheet.UsedRange(); err != nil {
				return err
			}

			result := rangeValues{Sheet: sheet.Name()}
			if rng != nil {
				result.Address = rng.Address()
				if raw {
					result.Rows, err = rng.RawValues()
				} else {
					result.Rows, err = rng.Values()
				}
				if err != nil {
					return err
				}
			}

			if jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "book read", result)
			}

			var sb strings.Builder
			if csvOutput {
				sb.WriteString(output.ToCSV(result.Rows))
			} else {
				header := color.New(color.Bold, color.FgCyan).Sprintf("Sheet: %s", result.Sheet)
				if result.Address != "" {
					header += color.New(color.FgHiBlack).Sprintf("  %s", result.Address)
				}
				sb.WriteString(header + "\n")
				w := output.NewWriter(&sb, false, env.Config.Output.Precision)
				if err := w.WriteTable(result.Rows); err != nil {
					return err
				}
			}

			content := sb.String()
			if pager && output.ShouldPage(cmd.OutOrStdout(), content, 0) {
				return output.Page(cmd.OutOrStdout(), content)
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().StringVar(&address, "range", "", "Range in A1 notation (default: used area)")
	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Output as CSV")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print unformatted values (dates as serial numbers)")
	cmd.Flags().BoolVar(&pager, "pager", false, "Page long output through $PAGER")

	return cmd
}
