// Package finance provides the XNPV, XIRR and SUMPRODUCT commands.
package finance

import (
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
)

// NewCommand returns the finance subcommand group.
func NewCommand(env *cli.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Net present value, internal rate of return and sumproduct",
		Long: `Spreadsheet finance functions over dated cash flows.

Cash flows come from arguments, a YAML file or a workbook range:
  xlnt finance xnpv --rate 0.1 2020-01-01:-100 2021-01-01:110
  xlnt finance xirr --flows flows.yaml
  xlnt finance xirr --book model.xlsx --sheet Flows --range A2:B9`,
	}

	cmd.AddCommand(newXNPVCommand(env))
	cmd.AddCommand(newXIRRCommand(env))
	cmd.AddCommand(newSumProductCommand(env))

	return cmd
}
