package cli

import (
	"fmt"
	"strings"

	"github.com/klytics/xlnt/internal/finance"
	"github.com/klytics/xlnt/internal/xl"
)

// Measure kinds computed over workbook ranges.
const (
	MeasureXNPV       = "xnpv"
	MeasureXIRR       = "xirr"
	MeasureSumProduct = "sumproduct"
)

// Measure is a finance function bound to ranges of a worksheet. For xnpv and
// xirr the single range holds dates in its first column and amounts in its
// second; for sumproduct every range is one sequence.
type Measure struct {
	Kind   string   `json:"kind"`
	Sheet  string   `json:"sheet"`
	Ranges []string `json:"ranges"`
	Rate   float64  `json:"rate,omitempty"`
}

// Validate checks that the measure names a known function and enough ranges.
func (m Measure) Validate() error {
	switch m.Kind {
	case MeasureXNPV, MeasureXIRR:
		if len(m.Ranges) != 1 {
			return fmt.Errorf("%s needs exactly one --range holding dates and amounts, got %d", m.Kind, len(m.Ranges))
		}
	case MeasureSumProduct:
		if len(m.Ranges) == 0 {
			return fmt.Errorf("sumproduct needs at least one --range")
		}
	default:
		return fmt.Errorf("unknown measure %q — use xnpv, xirr or sumproduct", m.Kind)
	}
	return nil
}

// Compute opens path and evaluates the measure.
func (e *Env) Compute(path string, m Measure) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	book, err := e.OpenBook(path)
	if err != nil {
		return 0, err
	}
	switch m.Kind {
	case MeasureXNPV:
		flows, err := CashFlowsFromBook(book, m.Sheet, m.Ranges[0])
		if err != nil {
			return 0, err
		}
		return finance.XNPV(m.Rate, flows)
	case MeasureXIRR:
		flows, err := CashFlowsFromBook(book, m.Sheet, m.Ranges[0])
		if err != nil {
			return 0, err
		}
		return e.Solver().XIRR(flows)
	default:
		seqs, err := SequencesFromBook(book, m.Sheet, m.Ranges)
		if err != nil {
			return 0, err
		}
		return finance.SumProduct(seqs...)
	}
}

// CashFlowsFromBook reads a two-column range: dates, then amounts.
func CashFlowsFromBook(book *xl.Book, sheetName, address string) ([]finance.CashFlow, error) {
	rng, err := lookupRange(book, sheetName, address)
	if err != nil {
		return nil, err
	}
	if _, cols := rng.Shape(); cols != 2 {
		return nil, fmt.Errorf("range %s has %d columns — expected two: dates, amounts", rng.Address(), cols)
	}
	ds, err := rng.Column(1).Dates()
	if err != nil {
		return nil, err
	}
	amounts, err := rng.Column(2).Floats()
	if err != nil {
		return nil, err
	}
	flows := make([]finance.CashFlow, len(ds))
	for i := range ds {
		flows[i] = finance.CashFlow{Date: ds[i], Amount: amounts[i]}
	}
	return flows, nil
}

// SequencesFromBook reads each range as one numeric sequence.
func SequencesFromBook(book *xl.Book, sheetName string, addresses []string) ([][]float64, error) {
	seqs := make([][]float64, 0, len(addresses))
	for _, address := range addresses {
		rng, err := lookupRange(book, sheetName, address)
		if err != nil {
			return nil, err
		}
		values, err := rng.Floats()
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, values)
	}
	return seqs, nil
}

// ResolveSheet returns the named sheet, or the first sheet when name is empty.
func ResolveSheet(book *xl.Book, name string) (*xl.Sheet, error) {
	if name == "" {
		return book.SheetAt(1)
	}
	return book.Sheet(name)
}

func lookupRange(book *xl.Book, sheetName, address string) (*xl.Range, error) {
	sheet, err := ResolveSheet(book, sheetName)
	if err != nil {
		return nil, err
	}
	rng := sheet.Range(strings.TrimSpace(address), "")
	if rng == nil {
		return nil, fmt.Errorf("invalid range %q — expected A1 notation like A2:B9", address)
	}
	return rng, nil
}
