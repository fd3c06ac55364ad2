package finance

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching against the typed errors below.
var (
	ErrValidation        = errors.New("invalid input")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrComputation       = errors.New("computation error")
	ErrConvergence       = errors.New("did not converge")
)

// ValidationError reports malformed input: an empty series, mismatched
// sequence lengths or a non-finite number.
type ValidationError struct {
	Op     string
	Reason string
	// Err optionally narrows the failure, e.g. ErrDimensionMismatch.
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || (e.Err != nil && errors.Is(e.Err, target))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ComputationError reports a mathematically undefined result.
type ComputationError struct {
	Op     string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

// ConvergenceError reports that the rate solver gave up. Rate and Value are
// the last estimate and the net present value there; they are diagnostic only
// and must not be used as a result.
type ConvergenceError struct {
	Iterations int
	Rate       float64
	Value      float64
	Reason     string
	Err        error
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("xirr: did not converge after %d iterations (last rate %g, npv %g)", e.Iterations, e.Rate, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrConvergence }

func (e *ConvergenceError) Unwrap() error { return e.Err }
