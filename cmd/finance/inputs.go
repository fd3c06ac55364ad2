package finance

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	fin "github.com/klytics/xlnt/internal/finance"
)

// flowSource is the set of flags selecting where cash flows come from.
type flowSource struct {
	file  string
	book  string
	sheet string
	rng   string
}

func (s *flowSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "flows", "", "YAML file with a list of {date, amount}")
	cmd.Flags().StringVar(&s.book, "book", "", "Workbook holding the cash flows")
	cmd.Flags().StringVar(&s.sheet, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().StringVar(&s.rng, "range", "", "Two-column range of dates and amounts, e.g. A2:B9")
}

// load returns the cash flows from exactly one of args, --flows or --book.
func (s *flowSource) load(env *cli.Env, args []string) ([]fin.CashFlow, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, s.file != "", s.book != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return nil, fmt.Errorf("no cash flows given — pass YYYY-MM-DD:amount arguments, --flows <file.yaml> or --book <file.xlsx> --range <A2:B9>")
	case sources > 1:
		return nil, fmt.Errorf("cash flows given more than once — use only one of arguments, --flows and --book")
	}

	switch {
	case s.file != "":
		f, err := os.Open(s.file)
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", s.file, err)
		}
		defer f.Close()
		return fin.LoadCashFlows(f)
	case s.book != "":
		if s.rng == "" {
			return nil, fmt.Errorf("--book needs --range, e.g. --range A2:B9")
		}
		book, err := env.OpenBook(s.book)
		if err != nil {
			return nil, err
		}
		return cli.CashFlowsFromBook(book, s.sheet, s.rng)
	}

	flows := make([]fin.CashFlow, 0, len(args))
	for _, a := range args {
		cf, err := fin.ParseCashFlow(a)
		if err != nil {
			return nil, err
		}
		flows = append(flows, cf)
	}
	return flows, nil
}

// parseSequence parses "1,2,3" into numbers. An empty item is an error.
func parseSequence(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, &fin.ValidationError{
				Op:     "sumproduct",
				Reason: fmt.Sprintf("value %d of %q is empty", i+1, s),
			}
		}
		v, err := fin.ParseAmount(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type flowJSON struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

func flowsJSON(flows []fin.CashFlow) []flowJSON {
	out := make([]flowJSON, len(flows))
	for i, cf := range flows {
		out[i] = flowJSON{Date: cf.Date.Format("2006-01-02"), Amount: cf.Amount}
	}
	return out
}
