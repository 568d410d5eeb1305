package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/screenlab/guidepost/schema"
)

// testExperimentConfig returns a minimal dropout screen config with two
// control and two treatment replicates.
func testExperimentConfig() *schema.ExperimentConfig {
	return &schema.ExperimentConfig{
		ExperimentName: "unit-fixture",
		ScreenType:     schema.DropoutScreen,
		Samples: []schema.Sample{
			{SampleID: "c1", Condition: "plasmid", Replicate: "r1", Role: schema.ControlRole, ColumnName: "ctrl_1"},
			{SampleID: "c2", Condition: "plasmid", Replicate: "r2", Role: schema.ControlRole, ColumnName: "ctrl_2"},
			{SampleID: "t1", Condition: "day21", Replicate: "r1", Role: schema.TreatmentRole, ColumnName: "treat_1"},
			{SampleID: "t2", Condition: "day21", Replicate: "r2", Role: schema.TreatmentRole, ColumnName: "treat_2"},
		},
		Analysis: schema.AnalysisOptions{
			FDRThreshold:      0.1,
			MinCountThreshold: 10,
			MinGuidesPerGene:  2,
		},
	}
}

// testCountsMatrix returns raw counts where GENE_A guides collapse in the
// treatment columns and everything else stays flat.
func testCountsMatrix(t *testing.T) *schema.CountsMatrix {
	t.Helper()
	guides := []string{
		"GENE_A_g1", "GENE_A_g2", "GENE_A_g3", "GENE_A_g4",
		"GENE_B_g1", "GENE_B_g2",
		"NT_g1", "NT_g2",
	}
	columns := []string{"ctrl_1", "ctrl_2", "treat_1", "treat_2"}
	values := [][]int64{
		{1200, 1100, 40, 55},
		{980, 1040, 30, 25},
		{1500, 1380, 60, 70},
		{1100, 1210, 45, 50},
		{800, 820, 790, 805},
		{950, 940, 930, 965},
		{1000, 1010, 990, 1005},
		{950, 960, 940, 955},
	}
	counts, err := schema.NewCountsMatrix(guides, columns, values)
	require.NoError(t, err)
	return counts
}

// testLibrary returns the guide-to-gene mapping matching testCountsMatrix.
func testLibrary(t *testing.T) *schema.LibraryMap {
	t.Helper()
	entries := []schema.LibraryEntry{
		{GuideID: "GENE_A_g1", GeneSymbol: "GENE_A", Weight: 1},
		{GuideID: "GENE_A_g2", GeneSymbol: "GENE_A", Weight: 1},
		{GuideID: "GENE_A_g3", GeneSymbol: "GENE_A", Weight: 1},
		{GuideID: "GENE_A_g4", GeneSymbol: "GENE_A", Weight: 1},
		{GuideID: "GENE_B_g1", GeneSymbol: "GENE_B", Weight: 1},
		{GuideID: "GENE_B_g2", GeneSymbol: "GENE_B", Weight: 1},
		{GuideID: "NT_g1", GeneSymbol: "NT", Weight: 1},
		{GuideID: "NT_g2", GeneSymbol: "NT", Weight: 1},
	}
	library, err := schema.NewLibraryMap(entries)
	require.NoError(t, err)
	return library
}
