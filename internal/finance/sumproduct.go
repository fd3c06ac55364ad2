package finance

import (
	"fmt"
	"math"
)

// SumProduct multiplies the sequences element-wise and sums the products:
//
//	sum_i(prod_j seqs[j][i])
//
// All sequences must have the same length. A single sequence is summed.
func SumProduct(seqs ...[]float64) (float64, error) {
	if len(seqs) == 0 {
		return 0, &ValidationError{Op: "sumproduct", Reason: "at least one sequence is required"}
	}
	n := len(seqs[0])
	for j, seq := range seqs {
		if len(seq) != n {
			return 0, &ValidationError{
				Op:     "sumproduct",
				Reason: fmt.Sprintf("sequence %d has %d values, sequence 1 has %d", j+1, len(seq), n),
				Err:    ErrDimensionMismatch,
			}
		}
		for i, v := range seq {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, &ValidationError{Op: "sumproduct", Reason: fmt.Sprintf("value %d of sequence %d is not finite", i+1, j+1)}
			}
		}
	}

	var sum float64
	for i := 0; i < n; i++ {
		product := 1.0
		for _, seq := range seqs {
			product *= seq[i]
		}
		sum += product
	}
	return sum, nil
}
