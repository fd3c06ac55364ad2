package finance

import (
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	fin "github.com/klytics/xlnt/internal/finance"
	"github.com/klytics/xlnt/internal/output"
)

type xnpvResult struct {
	Rate  float64    `json:"rate"`
	XNPV  float64    `json:"xnpv"`
	Flows []flowJSON `json:"flows"`
}

func newXNPVCommand(env *cli.Env) *cobra.Command {
	var (
		rate float64
		src  flowSource
	)

	cmd := &cobra.Command{
		Use:   "xnpv --rate <r> [YYYY-MM-DD:amount...]",
		Short: "Net present value of dated cash flows",
		Long: `Discounts each cash flow by (1+rate)^(days/365), counting days from the
earliest date, and sums the results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flows, err := src.load(env, args)
			if err != nil {
				return err
			}
			v, err := fin.XNPV(rate, flows)
			if err != nil {
				return err
			}

			w := env.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "finance xnpv", xnpvResult{Rate: rate, XNPV: v, Flows: flowsJSON(flows)})
			}
			return w.WriteNumber("XNPV", v)
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual discount rate, e.g. 0.1")
	_ = cmd.MarkFlagRequired("rate")
	src.register(cmd)

	return cmd
}
