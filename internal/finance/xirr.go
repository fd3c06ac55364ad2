package finance

import (
	"math"
)

// Solver defaults, matching the secant solver spreadsheet XIRR ports use.
const (
	DefaultGuess         = 0.1
	DefaultMaxIterations = 50
	DefaultTolerance     = 1.48e-8
)

// residualScale bounds |XNPV| at an accepted root relative to the gross cash
// flow, so a solver that stalls on a flat curve is not reported as converged.
const residualScale = 1e-6

// Solver finds the internal rate of return of a dated cash-flow series with
// the secant method.
type Solver struct {
	Guess         float64
	MaxIterations int
	Tolerance     float64
}

// Option configures a Solver.
type Option func(*Solver)

// WithGuess sets the starting estimate.
func WithGuess(g float64) Option { return func(s *Solver) { s.Guess = g } }

// WithMaxIterations bounds the number of secant steps.
func WithMaxIterations(n int) Option { return func(s *Solver) { s.MaxIterations = n } }

// WithTolerance sets the step size below which the solver stops.
func WithTolerance(tol float64) Option { return func(s *Solver) { s.Tolerance = tol } }

// NewSolver returns a Solver with defaults overridden by opts.
func NewSolver(opts ...Option) Solver {
	s := Solver{
		Guess:         DefaultGuess,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// XIRR returns the rate r for which XNPV(r, flows) is zero.
//
// Convergence is not guaranteed: a series without a sign change has no root,
// and one with several sign changes may have several. Failure is reported as
// a *ConvergenceError; the caller decides whether to retry with another guess.
func XIRR(flows []CashFlow, opts ...Option) (float64, error) {
	return NewSolver(opts...).XIRR(flows)
}

// XIRR runs the solver over flows.
func (s Solver) XIRR(flows []CashFlow) (float64, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	if len(flows) == 0 {
		return 0, &ValidationError{Op: "xirr", Reason: "cash flow series is empty"}
	}
	var gross float64
	for _, cf := range flows {
		if math.IsNaN(cf.Amount) || math.IsInf(cf.Amount, 0) {
			return 0, &ValidationError{Op: "xirr", Reason: "cash flow amounts must be finite"}
		}
		gross += math.Abs(cf.Amount)
	}
	sorted := Sorted(flows)

	f := func(r float64) (float64, error) {
		if r <= -1 || math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, &ComputationError{Op: "xirr", Reason: "estimate left the domain rate > -1"}
		}
		return xnpv(r, sorted)
	}

	p0 := s.Guess
	p1 := p0*(1+1e-4) + 1e-4
	if p0 < 0 {
		p1 = p0*(1+1e-4) - 1e-4
	}
	q0, err := f(p0)
	if err != nil {
		return 0, &ConvergenceError{Rate: p0, Err: err}
	}
	q1, err := f(p1)
	if err != nil {
		return 0, &ConvergenceError{Rate: p1, Err: err}
	}
	if math.Abs(q1) < math.Abs(q0) {
		p0, p1, q0, q1 = p1, p0, q1, q0
	}

	for iter := 1; iter <= s.MaxIterations; iter++ {
		if q1 == q0 {
			return 0, &ConvergenceError{Iterations: iter, Rate: p1, Value: q1, Reason: "secant slope is zero"}
		}
		var p float64
		if math.Abs(q1) > math.Abs(q0) {
			p = (-q0/q1*p1 + p0) / (1 - q0/q1)
		} else {
			p = (-q1/q0*p0 + p1) / (1 - q1/q0)
		}

		q, err := f(p)
		if err != nil {
			return 0, &ConvergenceError{Iterations: iter, Rate: p, Value: q1, Err: err}
		}
		if math.Abs(p-p1) <= s.Tolerance {
			if math.Abs(q) > residualScale*math.Max(1, gross) {
				return 0, &ConvergenceError{Iterations: iter, Rate: p, Value: q, Reason: "estimate stalled away from a root"}
			}
			return p, nil
		}
		p0, q0 = p1, q1
		p1, q1 = p, q
	}
	return 0, &ConvergenceError{Iterations: s.MaxIterations, Rate: p1, Value: q1}
}

func (s Solver) validate() error {
	switch {
	case math.IsNaN(s.Guess) || math.IsInf(s.Guess, 0):
		return &ValidationError{Op: "xirr", Reason: "guess must be a finite number"}
	case s.Guess <= -1:
		return &ValidationError{Op: "xirr", Reason: "guess must be greater than -1"}
	case s.MaxIterations <= 0:
		return &ValidationError{Op: "xirr", Reason: "max iterations must be positive"}
	case !(s.Tolerance > 0) || math.IsInf(s.Tolerance, 0):
		return &ValidationError{Op: "xirr", Reason: "tolerance must be a positive number"}
	}
	return nil
}
