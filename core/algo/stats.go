package algo

import (
	"math"
	"sort"
)

// WeightedMean returns the mean of values weighted by weights. When the
// weights sum to zero it falls back to the unweighted mean.
func WeightedMean(values, weights []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum, weightSum float64
	for i, v := range values {
		sum += v * weights[i]
		weightSum += weights[i]
	}
	if weightSum > 0 {
		return sum / weightSum
	}
	var plain float64
	for _, v := range values {
		plain += v
	}
	return plain / float64(len(values))
}

// Median returns the median of values. The input slice is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// PopulationVariance returns the variance of values with zero delta degrees
// of freedom (divide by n).
func PopulationVariance(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss / float64(n)
}

// PearsonCorrelation returns the Pearson correlation coefficient of two
// equal-length vectors, or NaN when either vector has zero variance.
func PearsonCorrelation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return math.NaN()
	}

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// AverageRanks assigns 1-based ranks to values, averaging the ranks of ties.
// With descending=true the largest value receives rank 1.
func AverageRanks(values []float64, descending bool) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if descending {
			return values[order[a]] > values[order[b]]
		}
		return values[order[a]] < values[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		// Positions i..j share the same value; give each the average rank.
		avg := float64(i+j+2) / 2 // mean of 1-based ranks i+1..j+1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
