package finance

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	fin "github.com/klytics/xlnt/internal/finance"
	"github.com/klytics/xlnt/internal/output"
)

type sumProductResult struct {
	SumProduct float64     `json:"sumproduct"`
	Sequences  [][]float64 `json:"sequences"`
}

func newSumProductCommand(env *cli.Env) *cobra.Command {
	var (
		book   string
		sheet  string
		ranges []string
	)

	cmd := &cobra.Command{
		Use:   "sumproduct [1,2,3 4,5,6...]",
		Short: "Sum of element-wise products of equal-length sequences",
		Long: `Multiplies the sequences element by element and sums the products.

Example:
  xlnt finance sumproduct 1,2,3 4,5,6                         # 32
  xlnt finance sumproduct --book m.xlsx --range A1:A3 --range B1:B3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seqs [][]float64
			switch {
			case book != "" && len(args) > 0:
				return fmt.Errorf("sequences given more than once — use arguments or --book, not both")
			case book != "":
				if len(ranges) == 0 {
					return fmt.Errorf("--book needs at least one --range")
				}
				b, err := env.OpenBook(book)
				if err != nil {
					return err
				}
				seqs, err = cli.SequencesFromBook(b, sheet, ranges)
				if err != nil {
					return err
				}
			default:
				for _, a := range args {
					seq, err := parseSequence(a)
					if err != nil {
						return err
					}
					seqs = append(seqs, seq)
				}
			}

			v, err := fin.SumProduct(seqs...)
			if err != nil {
				return err
			}

			w := env.Writer(cmd)
			if w.JSON() {
				return output.PrintJSON(cmd.OutOrStdout(), "finance sumproduct", sumProductResult{SumProduct: v, Sequences: seqs})
			}
			return w.WriteNumber("SUMPRODUCT", v)
		},
	}

	cmd.Flags().StringVar(&book, "book", "", "Workbook holding the sequences")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().StringArrayVar(&ranges, "range", nil, "Range holding one sequence; repeat for each")

	return cmd
}
