// Package finance implements the dated cash-flow functions XNPV and XIRR and
// the element-wise SUMPRODUCT.
//
// The functions are pure: they never modify their inputs and keep no state.
package finance

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/klytics/xlnt/internal/dates"
)

// CashFlow is a dated amount. Negative amounts are outflows, positive inflows.
type CashFlow struct {
	Date   time.Time `json:"date" yaml:"date"`
	Amount float64   `json:"amount" yaml:"amount"`
}

// Sorted returns a chronologically ordered copy of flows. Flows on the same
// date keep their input order.
func Sorted(flows []CashFlow) []CashFlow {
	out := make([]CashFlow, len(flows))
	copy(out, flows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// HasSignChange reports whether flows contain both an outflow and an inflow.
// A series without one has no real internal rate of return.
func HasSignChange(flows []CashFlow) bool {
	var neg, pos bool
	for _, cf := range flows {
		switch {
		case cf.Amount < 0:
			neg = true
		case cf.Amount > 0:
			pos = true
		}
	}
	return neg && pos
}

// ParseAmount parses a decimal amount as written in a cell or on the command
// line. Thousands separators are tolerated.
func ParseAmount(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

// ParseCashFlow parses "YYYY-MM-DD:amount", e.g. "2020-01-01:-100".
func ParseCashFlow(s string) (CashFlow, error) {
	datePart, amountPart, ok := strings.Cut(s, ":")
	if !ok {
		return CashFlow{}, fmt.Errorf("invalid cash flow %q — expected YYYY-MM-DD:amount", s)
	}
	d, err := dates.ParseDate(datePart)
	if err != nil {
		return CashFlow{}, err
	}
	amount, err := ParseAmount(amountPart)
	if err != nil {
		return CashFlow{}, err
	}
	return CashFlow{Date: d, Amount: amount}, nil
}

type yamlCashFlow struct {
	Date   string `yaml:"date"`
	Amount string `yaml:"amount"`
}

// LoadCashFlows reads a YAML list of cash flows:
//
//	- date: 2020-01-01
//	  amount: -100
//	- date: 2021-01-01
//	  amount: 110
func LoadCashFlows(r io.Reader) ([]CashFlow, error) {
	var raw []yamlCashFlow
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid cash flow file: %w", err)
	}

	flows := make([]CashFlow, 0, len(raw))
	for i, item := range raw {
		d, err := dates.ParseDate(item.Date)
		if err != nil {
			return nil, fmt.Errorf("cash flow %d: %w", i+1, err)
		}
		amount, err := ParseAmount(item.Amount)
		if err != nil {
			return nil, fmt.Errorf("cash flow %d: %w", i+1, err)
		}
		flows = append(flows, CashFlow{Date: d, Amount: amount})
	}
	return flows, nil
}
