package enrich

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlab/guidepost/internal/contract"
)

// writeGMT writes a pathway fixture exercising comments, blank lines and a
// truncated record alongside two valid sets.
func writeGMT(t *testing.T) string {
	t.Helper()
	content := "# reactome export\n" +
		"\n" +
		"APOPTOSIS\thttps://example.org/apoptosis\tGENE_00\tGENE_01\tGENE_02\tGENE_03\tGENE_04\n" +
		"TRUNCATED\tno-genes\n" +
		"HOUSEKEEPING\thttps://example.org/housekeeping\tGENE_10\tGENE_11\tGENE_12\tGENE_13\tGENE_14\n"
	path := filepath.Join(t.TempDir(), "pathways.gmt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// testUniverse returns twenty gene symbols GENE_00 through GENE_19.
func testUniverse() []string {
	universe := make([]string, 20)
	for i := range universe {
		universe[i] = fmt.Sprintf("GENE_%02d", i)
	}
	return universe
}

// TestLoadGMT verifies GMT parsing: comments, blanks and short lines are
// skipped, and set membership starts at the third field.
func TestLoadGMT(t *testing.T) {
	sets, err := LoadGMT(writeGMT(t))
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, "APOPTOSIS", sets[0].ID)
	assert.Equal(t, "APOPTOSIS", sets[0].Name)
	assert.Equal(t, "https://example.org/apoptosis", sets[0].Source)
	assert.Equal(t, []string{"GENE_00", "GENE_01", "GENE_02", "GENE_03", "GENE_04"}, sets[0].Genes)
	assert.Equal(t, "HOUSEKEEPING", sets[1].ID)
}

// TestLoadGMTMissing verifies that a nonexistent path is an error from the
// loader itself.
func TestLoadGMTMissing(t *testing.T) {
	_, err := LoadGMT(filepath.Join(t.TempDir(), "missing.gmt"))
	assert.Error(t, err)
}

// TestNewBackendAvailability verifies that an empty or broken pathway source
// degrades to an unavailable backend instead of failing construction.
func TestNewBackendAvailability(t *testing.T) {
	assert.False(t, NewBackend("").IsAvailable())
	assert.False(t, NewBackend(filepath.Join(t.TempDir(), "missing.gmt")).IsAvailable())
	assert.True(t, NewBackend(writeGMT(t)).IsAvailable())
}

// TestRunEnrichment verifies the hypergeometric tail on a hand-checked case:
// hitting all five members of a five-gene set in a twenty-gene universe has
// p = 1/C(20,5).
func TestRunEnrichment(t *testing.T) {
	b := NewBackend(writeGMT(t))
	hits := []string{"GENE_00", "GENE_01", "GENE_02", "GENE_03", "GENE_04"}

	results, outcome := b.Run(context.Background(), hits, testUniverse(), 0.1)
	require.True(t, outcome.Succeeded())
	require.Len(t, results, 1) // housekeeping set has no overlap

	r := results[0]
	assert.Equal(t, "APOPTOSIS", r.PathwayID)
	assert.Equal(t, 5, r.Overlap)
	assert.Equal(t, hits, r.Genes)
	assert.InDelta(t, 1.0/15504.0, r.PValue, 1e-12)
	assert.InDelta(t, r.PValue, r.FDR, 1e-12)
}

// TestRunCutoffFiltering verifies that weak overlaps are dropped by the FDR
// cutoff: one shared gene out of five gives p above 0.8.
func TestRunCutoffFiltering(t *testing.T) {
	b := NewBackend(writeGMT(t))
	hits := []string{"GENE_04", "GENE_05", "GENE_06", "GENE_07", "GENE_08"}

	results, outcome := b.Run(context.Background(), hits, testUniverse(), 0.05)
	require.True(t, outcome.Succeeded())
	assert.Empty(t, results)

	results, outcome = b.Run(context.Background(), hits, testUniverse(), 1.0)
	require.True(t, outcome.Succeeded())
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0-3003.0/15504.0, results[0].PValue, 1e-12)
}

// TestRunDegenerateInputs verifies that empty hit lists and hits outside the
// universe are handled without error.
func TestRunDegenerateInputs(t *testing.T) {
	b := NewBackend(writeGMT(t))

	results, outcome := b.Run(context.Background(), nil, testUniverse(), 0.1)
	require.True(t, outcome.Succeeded())
	assert.Empty(t, results)

	results, outcome = b.Run(context.Background(), []string{"GENE_00"}, nil, 0.1)
	require.True(t, outcome.Succeeded())
	assert.Empty(t, results)

	// Hits unknown to the universe contribute nothing.
	results, outcome = b.Run(context.Background(), []string{"NOT_A_GENE"}, testUniverse(), 1.0)
	require.True(t, outcome.Succeeded())
	assert.Empty(t, results)
}

// TestRunContextCancel verifies that cancellation surfaces as an execution
// failure outcome.
func TestRunContextCancel(t *testing.T) {
	b := NewBackend(writeGMT(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, outcome := b.Run(ctx, []string{"GENE_00"}, testUniverse(), 0.1)
	assert.Nil(t, results)
	assert.Equal(t, contract.OutcomeExecutionFailed, outcome.Kind)
}

// TestHypergeometricTail checks the tail probability against hand-computed
// values on a four-gene universe.
func TestHypergeometricTail(t *testing.T) {
	tests := []struct {
		name                 string
		total, setSize, n, k int
		want                 float64
	}{
		{name: "exact full overlap", total: 4, setSize: 2, n: 2, k: 2, want: 1.0 / 6.0},
		{name: "at least one", total: 4, setSize: 2, n: 2, k: 1, want: 5.0 / 6.0},
		{name: "zero threshold is certain", total: 4, setSize: 2, n: 2, k: 0, want: 1.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := hypergeometricTail(tc.total, tc.setSize, tc.n, tc.k)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}
