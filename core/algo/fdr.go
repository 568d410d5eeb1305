package algo

import (
	"fmt"
	"math"
	"sort"
)

// BenjaminiHochberg applies the Benjamini-Hochberg step-up FDR correction to a
// vector of p-values and returns the adjusted values in the original order.
// Inputs must be valid probabilities; NaN or negative entries are rejected.
func BenjaminiHochberg(pvalues []float64) ([]float64, error) {
	n := len(pvalues)
	if n == 0 {
		return []float64{}, nil
	}
	for i, p := range pvalues {
		if math.IsNaN(p) || p < 0 {
			return nil, fmt.Errorf("p-value at index %d is invalid: %v", i, p)
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pvalues[order[a]] < pvalues[order[b]]
	})

	adjusted := make([]float64, n)
	cumulative := 1.0
	for i := n - 1; i >= 0; i-- {
		rank := float64(i + 1)
		value := pvalues[order[i]] * float64(n) / rank
		cumulative = math.Min(cumulative, value)
		adjusted[i] = cumulative
	}

	result := make([]float64, n)
	for i, idx := range order {
		result[idx] = math.Min(math.Max(adjusted[i], 0), 1)
	}
	return result, nil
}
