package finance

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestXNPVSingleYear(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2020, 1, 1), Amount: -100},
		{Date: date(2021, 1, 1), Amount: 110},
	}
	got, err := XNPV(0.1, flows)
	if err != nil {
		t.Fatalf("XNPV failed: %v", err)
	}
	// 2020 is a leap year: 366 days over a fixed 365-day year.
	want := -100 + 110/math.Pow(1.1, 366.0/365.0)
	if !approx(got, want, 1e-12) {
		t.Errorf("XNPV = %.12f, want %.12f", got, want)
	}
}

func TestXNPVUnsortedInput(t *testing.T) {
	sorted := []CashFlow{
		{Date: date(2019, 1, 1), Amount: -1000},
		{Date: date(2019, 6, 30), Amount: 300},
		{Date: date(2020, 3, 15), Amount: 400},
		{Date: date(2021, 1, 1), Amount: 500},
	}
	shuffled := []CashFlow{sorted[2], sorted[0], sorted[3], sorted[1]}
	before := append([]CashFlow(nil), shuffled...)

	a, err := XNPV(0.08, sorted)
	if err != nil {
		t.Fatal(err)
	}
	b, err := XNPV(0.08, shuffled)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("sorted %v != shuffled %v", a, b)
	}
	if diff := cmp.Diff(before, shuffled); diff != "" {
		t.Errorf("XNPV modified its input (-before +after):\n%s", diff)
	}
}

func TestXNPVZeroRateIsSum(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2020, 1, 1), Amount: -50},
		{Date: date(2022, 7, 1), Amount: 20},
		{Date: date(2025, 1, 1), Amount: 45},
	}
	got, err := XNPV(0, flows)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got, 15, 1e-12) {
		t.Errorf("got %v, want 15", got)
	}
}

func TestXNPVDecreasingInRate(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2020, 1, 1), Amount: -1000},
		{Date: date(2021, 1, 1), Amount: 400},
		{Date: date(2022, 1, 1), Amount: 400},
		{Date: date(2023, 1, 1), Amount: 400},
	}
	prev := math.Inf(1)
	for r := -0.5; r <= 1.0; r += 0.05 {
		v, err := XNPV(r, flows)
		if err != nil {
			t.Fatalf("XNPV(%v) failed: %v", r, err)
		}
		if v >= prev {
			t.Fatalf("XNPV not decreasing at r=%v: %v >= %v", r, v, prev)
		}
		prev = v
	}
}

func TestXNPVErrors(t *testing.T) {
	flows := []CashFlow{{Date: date(2020, 1, 1), Amount: -100}, {Date: date(2021, 1, 1), Amount: 110}}

	tests := []struct {
		name  string
		rate  float64
		flows []CashFlow
		want  error
	}{
		{"empty series", 0.1, nil, ErrValidation},
		{"nan rate", math.NaN(), flows, ErrValidation},
		{"infinite rate", math.Inf(1), flows, ErrValidation},
		{"rate of -1", -1, flows, ErrComputation},
		{"rate below -1", -1.5, flows, ErrComputation},
		{"non-finite amount", 0.1, []CashFlow{{Date: date(2020, 1, 1), Amount: math.Inf(-1)}}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := XNPV(tt.rate, tt.flows)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestXNPVComputationErrorType(t *testing.T) {
	_, err := XNPV(-1, []CashFlow{{Date: date(2020, 1, 1), Amount: 1}})
	var ce *ComputationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ComputationError, got %T", err)
	}
	if ce.Op != "xnpv" {
		t.Errorf("Op = %q", ce.Op)
	}
}

func TestXIRRRoundTrip(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2020, 1, 1), Amount: -100},
		{Date: date(2021, 1, 1), Amount: 110},
	}
	r, err := XIRR(flows)
	if err != nil {
		t.Fatalf("XIRR failed: %v", err)
	}
	want := math.Pow(1.1, 365.0/366.0) - 1
	if !approx(r, want, 1e-7) {
		t.Errorf("XIRR = %v, want %v", r, want)
	}
	npv, err := XNPV(r, flows)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(npv, 0, 1e-6) {
		t.Errorf("XNPV at XIRR = %v, want ~0", npv)
	}
}

func TestXIRRIrregularSeries(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2008, 1, 1), Amount: -10000},
		{Date: date(2008, 3, 1), Amount: 2750},
		{Date: date(2008, 10, 30), Amount: 4250},
		{Date: date(2009, 2, 15), Amount: 3250},
		{Date: date(2009, 4, 1), Amount: 2750},
	}
	r, err := XIRR(flows)
	if err != nil {
		t.Fatalf("XIRR failed: %v", err)
	}
	// Reference value from the spreadsheet XIRR documentation example.
	if !approx(r, 0.373362535, 1e-6) {
		t.Errorf("XIRR = %.9f, want 0.373362535", r)
	}
	npv, _ := XNPV(r, flows)
	if !approx(npv, 0, 1e-4) {
		t.Errorf("XNPV at XIRR = %v", npv)
	}
}

func TestXIRRNegativeGuess(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2020, 1, 1), Amount: -100},
		{Date: date(2022, 1, 1), Amount: 60},
	}
	r, err := XIRR(flows, WithGuess(-0.1))
	if err != nil {
		t.Fatalf("XIRR failed: %v", err)
	}
	if r >= 0 {
		t.Errorf("expected a negative rate for a losing investment, got %v", r)
	}
	npv, _ := XNPV(r, flows)
	if !approx(npv, 0, 1e-6) {
		t.Errorf("XNPV at XIRR = %v", npv)
	}
}

func TestXIRRNoSignChange(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2020, 1, 1), Amount: 100},
		{Date: date(2021, 1, 1), Amount: 110},
	}
	if HasSignChange(flows) {
		t.Fatal("HasSignChange should be false")
	}
	_, err := XIRR(flows)
	if !errors.Is(err, ErrConvergence) {
		t.Fatalf("expected convergence error, got %v", err)
	}
	var ce *ConvergenceError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConvergenceError, got %T", err)
	}
	if !strings.Contains(ce.Error(), "did not converge") {
		t.Errorf("unexpected message %q", ce.Error())
	}
}

func TestXIRRIterationBound(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2008, 1, 1), Amount: -10000},
		{Date: date(2008, 3, 1), Amount: 2750},
		{Date: date(2008, 10, 30), Amount: 4250},
		{Date: date(2009, 2, 15), Amount: 3250},
		{Date: date(2009, 4, 1), Amount: 2750},
	}
	_, err := XIRR(flows, WithMaxIterations(1), WithTolerance(1e-15))
	var ce *ConvergenceError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConvergenceError, got %v", err)
	}
	if ce.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", ce.Iterations)
	}
}

func TestXIRRValidation(t *testing.T) {
	flows := []CashFlow{{Date: date(2020, 1, 1), Amount: -100}, {Date: date(2021, 1, 1), Amount: 110}}
	cases := map[string]struct {
		flows []CashFlow
		opts  []Option
	}{
		"empty":          {nil, nil},
		"guess at -1":    {flows, []Option{WithGuess(-1)}},
		"nan guess":      {flows, []Option{WithGuess(math.NaN())}},
		"zero iteration": {flows, []Option{WithMaxIterations(0)}},
		"zero tolerance": {flows, []Option{WithTolerance(0)}},
		"nan amount":     {[]CashFlow{{Date: date(2020, 1, 1), Amount: math.NaN()}}, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := XIRR(tc.flows, tc.opts...); !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewSolverDefaults(t *testing.T) {
	got := NewSolver()
	want := Solver{Guess: 0.1, MaxIterations: 50, Tolerance: 1.48e-8}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewSolver() mismatch (-want +got):\n%s", diff)
	}
}

func TestSumProduct(t *testing.T) {
	got, err := SumProduct([]float64{1, 2, 3}, []float64{4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if got != 32 {
		t.Errorf("SumProduct = %v, want 32", got)
	}

	got, err = SumProduct([]float64{1, 2, 3}, []float64{4, 5, 6}, []float64{2, 0, -1})
	if err != nil {
		t.Fatal(err)
	}
	if got != 8-18 {
		t.Errorf("three sequences = %v, want -10", got)
	}
}

func TestSumProductSingleSequence(t *testing.T) {
	got, err := SumProduct([]float64{1.5, 2.5, -1})
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("got %v, want 3", got)
	}
}

func TestSumProductErrors(t *testing.T) {
	_, err := SumProduct([]float64{1, 2}, []float64{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("dimension mismatch should also be a validation error, got %v", err)
	}

	if _, err := SumProduct(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for no sequences, got %v", err)
	}

	if _, err := SumProduct([]float64{1, math.NaN()}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for NaN, got %v", err)
	}
}

func TestSortedIsStable(t *testing.T) {
	in := []CashFlow{
		{Date: date(2021, 1, 1), Amount: 1},
		{Date: date(2020, 1, 1), Amount: 2},
		{Date: date(2021, 1, 1), Amount: 3},
		{Date: date(2020, 1, 1), Amount: 4},
	}
	got := Sorted(in)
	want := []CashFlow{in[1], in[3], in[0], in[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCashFlow(t *testing.T) {
	cf, err := ParseCashFlow("2020-01-01:-1,250.50")
	if err != nil {
		t.Fatal(err)
	}
	if !cf.Date.Equal(date(2020, 1, 1)) || cf.Amount != -1250.5 {
		t.Errorf("got %+v", cf)
	}

	for _, bad := range []string{"2020-01-01", "2020-13-01:5", "2020-01-01:abc"} {
		if _, err := ParseCashFlow(bad); err == nil {
			t.Errorf("ParseCashFlow(%q) should fail", bad)
		}
	}
}

func TestLoadCashFlows(t *testing.T) {
	doc := `
- date: 2020-01-01
  amount: -100
- date: 2021-01-01
  amount: "110.25"
`
	flows, err := LoadCashFlows(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadCashFlows failed: %v", err)
	}
	want := []CashFlow{
		{Date: date(2020, 1, 1), Amount: -100},
		{Date: date(2021, 1, 1), Amount: 110.25},
	}
	if diff := cmp.Diff(want, flows); diff != "" {
		t.Errorf("LoadCashFlows mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadCashFlows(strings.NewReader("- date: nope\n  amount: 1\n")); err == nil {
		t.Error("expected error for bad date")
	}
}
