package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestWeightedMean tests the weighted mean with and without usable weights.
func TestWeightedMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		weights  []float64
		expected float64
	}{
		{
			name:     "equal weights match plain mean",
			values:   []float64{1, 2, 3},
			weights:  []float64{1, 1, 1},
			expected: 2,
		},
		{
			name:     "unequal weights pull toward heavy value",
			values:   []float64{0, 10},
			weights:  []float64{1, 3},
			expected: 7.5,
		},
		{
			name:     "zero weights fall back to plain mean",
			values:   []float64{2, 4, 6},
			weights:  []float64{0, 0, 0},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WeightedMean(tt.values, tt.weights), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(WeightedMean(nil, nil)))
}

// TestMedian tests the median on odd, even and empty inputs.
func TestMedian(t *testing.T) {
	assert.InDelta(t, 3.0, Median([]float64{5, 1, 3}), 1e-12)
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 2, 3}), 1e-12)
	assert.InDelta(t, 7.0, Median([]float64{7}), 1e-12)
	assert.True(t, math.IsNaN(Median(nil)))

	// Input slice must not be reordered.
	in := []float64{9, 1, 5}
	_ = Median(in)
	assert.Equal(t, []float64{9, 1, 5}, in)
}

// TestPopulationVariance tests variance with zero delta degrees of freedom.
func TestPopulationVariance(t *testing.T) {
	assert.InDelta(t, 0.0, PopulationVariance([]float64{4, 4, 4}), 1e-12)
	assert.InDelta(t, 2.0, PopulationVariance([]float64{1, 2, 3, 4, 5}), 1e-12)
	assert.True(t, math.IsNaN(PopulationVariance(nil)))
}

// TestPearsonCorrelation tests correlation on exact and degenerate inputs.
func TestPearsonCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.0, PearsonCorrelation(x, []float64{2, 4, 6, 8}), 1e-12)
	assert.InDelta(t, -1.0, PearsonCorrelation(x, []float64{8, 6, 4, 2}), 1e-12)

	// Zero variance on either side is undefined.
	assert.True(t, math.IsNaN(PearsonCorrelation(x, []float64{5, 5, 5, 5})))
	assert.True(t, math.IsNaN(PearsonCorrelation(nil, nil)))
	assert.True(t, math.IsNaN(PearsonCorrelation(x, []float64{1, 2})))
}

// TestAverageRanks tests tie-averaged ranking in both directions.
func TestAverageRanks(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		descending bool
		expected   []float64
	}{
		{
			name:       "descending with ties",
			values:     []float64{3, 1, 2, 3},
			descending: true,
			expected:   []float64{1.5, 4, 3, 1.5},
		},
		{
			name:       "ascending with ties",
			values:     []float64{10, 20, 20, 30},
			descending: false,
			expected:   []float64{1, 2.5, 2.5, 4},
		},
		{
			name:       "all tied",
			values:     []float64{5, 5, 5},
			descending: true,
			expected:   []float64{2, 2, 2},
		},
		{
			name:       "empty input",
			values:     []float64{},
			descending: true,
			expected:   []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AverageRanks(tt.values, tt.descending))
		})
	}
}
