package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// TestNormalizeCPM checks the counts-per-million invariant: every normalized
// sample column sums to one million.
func TestNormalizeCPM(t *testing.T) {
	counts := testCountsMatrix(t)
	cpm, err := NormalizeCPM(counts, DefaultPseudoCount)
	require.NoError(t, err)

	require.Len(t, cpm.Values, counts.NumGuides())
	for j, col := range cpm.Columns {
		var sum float64
		for i := range cpm.Values {
			sum += cpm.Values[i][j]
		}
		assert.InDelta(t, 1e6, sum, 1e-6, "column %s should sum to 1e6", col)
	}

	// Every entry is strictly positive thanks to the pseudo-count.
	for i := range cpm.Values {
		for j := range cpm.Values[i] {
			assert.Greater(t, cpm.Values[i][j], 0.0)
		}
	}
}

// TestNormalizeCPMEmpty checks the empty-matrix contract error.
func TestNormalizeCPMEmpty(t *testing.T) {
	_, err := NormalizeCPM(nil, DefaultPseudoCount)
	assert.True(t, contract.IsDataContractError(err))
}

// TestComputeLog2FoldChangeDropout checks the dropout sign flip: depleted
// guides score positive so higher always means stronger.
func TestComputeLog2FoldChangeDropout(t *testing.T) {
	counts := testCountsMatrix(t)
	cfg := testExperimentConfig()

	cpm, err := NormalizeCPM(counts, DefaultPseudoCount)
	require.NoError(t, err)
	log2fc, err := ComputeLog2FoldChange(cpm, cfg, DefaultPseudoCount)
	require.NoError(t, err)
	require.Len(t, log2fc, counts.NumGuides())

	// GENE_A guides (rows 0-3) are depleted; after the flip they are positive.
	for i := 0; i < 4; i++ {
		assert.Greater(t, log2fc[i], 1.0, "depleted guide %d should score strongly positive", i)
	}
	// Flat guides gain CPM share when GENE_A drops out, so after the flip
	// they land below zero and well below every depleted guide.
	for i := 4; i < len(log2fc); i++ {
		assert.Less(t, log2fc[i], 0.0)
		for j := 0; j < 4; j++ {
			assert.Less(t, log2fc[i], log2fc[j])
		}
	}
}

// TestComputeLog2FoldChangeEnrichment checks that enrichment screens keep the
// natural sign.
func TestComputeLog2FoldChangeEnrichment(t *testing.T) {
	counts := testCountsMatrix(t)
	cfg := testExperimentConfig()
	cfg.ScreenType = schema.EnrichmentScreen

	cpm, err := NormalizeCPM(counts, DefaultPseudoCount)
	require.NoError(t, err)
	log2fc, err := ComputeLog2FoldChange(cpm, cfg, DefaultPseudoCount)
	require.NoError(t, err)

	// Depleted guides keep their negative sign without the flip.
	for i := 0; i < 4; i++ {
		assert.Less(t, log2fc[i], -1.0)
	}
}

// TestComputeLog2FoldChangeMissingRoles checks the contract errors for
// configurations without usable sample roles.
func TestComputeLog2FoldChangeMissingRoles(t *testing.T) {
	counts := testCountsMatrix(t)
	cpm, err := NormalizeCPM(counts, DefaultPseudoCount)
	require.NoError(t, err)

	noTreatment := testExperimentConfig()
	noTreatment.Samples = noTreatment.Samples[:2]
	_, err = ComputeLog2FoldChange(cpm, noTreatment, DefaultPseudoCount)
	assert.True(t, contract.IsDataContractError(err))

	badColumn := testExperimentConfig()
	badColumn.Samples[0].ColumnName = "missing_col"
	_, err = ComputeLog2FoldChange(cpm, badColumn, DefaultPseudoCount)
	assert.True(t, contract.IsDataContractError(err))
}

// TestBuildGuideRecords checks the library join skips unmapped guides and
// keeps matrix order.
func TestBuildGuideRecords(t *testing.T) {
	library := testLibrary(t)
	guides := []string{"GENE_A_g1", "unmapped_guide", "GENE_B_g1"}
	log2fc := []float64{2.5, 9.9, 0.1}

	records := BuildGuideRecords(guides, log2fc, library)
	require.Len(t, records, 2)

	assert.Equal(t, "GENE_A_g1", records[0].GuideID)
	assert.Equal(t, "GENE_A", records[0].GeneSymbol)
	assert.InDelta(t, 2.5, records[0].Log2FoldChange, 1e-12)
	assert.InDelta(t, 1.0, records[0].Weight, 1e-12)

	assert.Equal(t, "GENE_B_g1", records[1].GuideID)
	assert.InDelta(t, 0.1, records[1].Log2FoldChange, 1e-12)
}
