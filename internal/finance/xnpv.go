package finance

import (
	"math"
	"strconv"
	"time"
)

// DaysPerYear is the fixed day-count divisor of XNPV. Leap years are not
// adjusted for; results match spreadsheet XNPV.
const DaysPerYear = 365.0

// XNPV returns the net present value of flows discounted at rate back to the
// date of the earliest flow:
//
//	sum(A_i / (1+rate)^((t_i - t_0) / 365))
//
// Flows need not be sorted. rate must be greater than -1.
func XNPV(rate float64, flows []CashFlow) (float64, error) {
	if len(flows) == 0 {
		return 0, &ValidationError{Op: "xnpv", Reason: "cash flow series is empty"}
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, &ValidationError{Op: "xnpv", Reason: "rate must be a finite number"}
	}
	if rate <= -1 {
		return 0, &ComputationError{Op: "xnpv", Reason: "rate must be greater than -1 (division by zero at (1+rate)^t)"}
	}
	for i, cf := range flows {
		if math.IsNaN(cf.Amount) || math.IsInf(cf.Amount, 0) {
			return 0, &ValidationError{Op: "xnpv", Reason: "amount of cash flow " + strconv.Itoa(i+1) + " is not finite"}
		}
	}
	return xnpv(rate, Sorted(flows))
}

// xnpv expects chronologically sorted, validated flows.
func xnpv(rate float64, sorted []CashFlow) (float64, error) {
	t0 := sorted[0].Date
	base := 1 + rate
	var sum float64
	for _, cf := range sorted {
		years := dayCount(t0, cf.Date) / DaysPerYear
		sum += cf.Amount / math.Pow(base, years)
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, &ComputationError{Op: "xnpv", Reason: "result is not finite"}
	}
	return sum, nil
}

// dayCount returns the number of calendar days from start to end, ignoring
// time of day and daylight-saving shifts.
func dayCount(start, end time.Time) float64 {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return math.Round(e.Sub(s).Hours() / 24)
}
