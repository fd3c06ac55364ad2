package finance

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	fin "github.com/klytics/xlnt/internal/finance"
	"github.com/klytics/xlnt/internal/output"
)

type xirrResult struct {
	XIRR  float64    `json:"xirr"`
	Guess float64    `json:"guess"`
	Flows []flowJSON `json:"flows"`
}

func newXIRRCommand(env *cli.Env) *cobra.Command {
	var (
		guess         float64
		maxIterations int
		tolerance     float64
		src           flowSource
	)

	cmd := &cobra.Command{
		Use:   "xirr [YYYY-MM-DD:amount...]",
		Short: "Internal rate of return of dated cash flows",
		Long: `Finds the rate at which the XNPV of the cash flows is zero using the
secant method. Defaults come from the finance.* config keys.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flows, err := src.load(env, args)
			if err != nil {
				return err
			}

			solver := env.Solver()
			if cmd.Flags().Changed("guess") {
				solver.Guess = guess
			}
			if cmd.Flags().Changed("max-iterations") {
				solver.MaxIterations = maxIterations
			}
			if cmd.Flags().Changed("tolerance") {
				solver.Tolerance = tolerance
			}

			if !fin.HasSignChange(flows) {
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "Warning: cash flows do not change sign — there is no rate of return to find")
			}

			rate, err := solver.XIRR(flows)
			if errors.Is(err, fin.ErrConvergence) {
				return fmt.Errorf("%w — try another --guess", err)
			} else if err != nil {
				return err
			}

			w := env.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "finance xirr", xirrResult{XIRR: rate, Guess: solver.Guess, Flows: flowsJSON(flows)})
			}
			return w.WriteNumber("XIRR", rate)
		},
	}

	cmd.Flags().Float64Var(&guess, "guess", fin.DefaultGuess, "Starting estimate")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", fin.DefaultMaxIterations, "Maximum secant steps")
	cmd.Flags().Float64Var(&tolerance, "tolerance", fin.DefaultTolerance, "Stop when successive estimates differ by less than this")
	src.register(cmd)

	return cmd
}
