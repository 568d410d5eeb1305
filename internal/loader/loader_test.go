package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadCountsMatrix tests loading a well-formed comma-delimited counts
// file.
func TestLoadCountsMatrix(t *testing.T) {
	path := writeTemp(t, "counts.csv", "guide_id,s1,s2\ng1,10,20\ng2,0,5\n")

	counts, err := LoadCountsMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, counts.Guides)
	assert.Equal(t, []string{"s1", "s2"}, counts.Columns)
	assert.Equal(t, int64(20), counts.Values[0][1])
	assert.Equal(t, int64(0), counts.Values[1][0])
}

// TestLoadCountsMatrixTabDelimited tests delimiter detection by extension.
func TestLoadCountsMatrixTabDelimited(t *testing.T) {
	path := writeTemp(t, "counts.tsv", "sgRNA\ts1\ts2\ng1\t10\t20\n")

	counts, err := LoadCountsMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, counts.Guides)
	assert.Equal(t, int64(10), counts.Values[0][0])
}

// TestLoadCountsMatrixErrors tests the data-contract rejections.
func TestLoadCountsMatrixErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad guide column header",
			content: "gene,s1\ng1,10\n",
		},
		{
			name:    "no data rows",
			content: "guide_id,s1\n",
		},
		{
			name:    "no sample columns",
			content: "guide_id\ng1\n",
		},
		{
			name:    "non-integer count",
			content: "guide_id,s1\ng1,abc\n",
		},
		{
			name:    "negative count",
			content: "guide_id,s1\ng1,-5\n",
		},
		{
			name:    "duplicate guide",
			content: "guide_id,s1\ng1,10\ng1,20\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "counts.csv", tt.content)
			_, err := LoadCountsMatrix(path)
			require.Error(t, err)
			assert.True(t, contract.IsDataContractError(err))
		})
	}

	_, err := LoadCountsMatrix(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, contract.IsDataContractError(err))
}

// TestLoadLibrary tests library loading with and without the weight column.
func TestLoadLibrary(t *testing.T) {
	path := writeTemp(t, "library.csv",
		"guide_id,gene_symbol,weight\ng1,GENE_A,0.5\ng2,GENE_A\ng3,GENE_B,\n")

	library, err := LoadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, 3, library.Len())

	e1, ok := library.Lookup("g1")
	require.True(t, ok)
	assert.InDelta(t, 0.5, e1.Weight, 1e-12)

	// Missing or empty weight defaults to 1.0.
	e2, _ := library.Lookup("g2")
	assert.InDelta(t, 1.0, e2.Weight, 1e-12)
	e3, _ := library.Lookup("g3")
	assert.InDelta(t, 1.0, e3.Weight, 1e-12)

	assert.Equal(t, []string{"GENE_A", "GENE_B"}, library.Genes())
}

// TestLoadLibraryErrors tests library rejections.
func TestLoadLibraryErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing gene column",
			content: "guide_id\ng1\n",
		},
		{
			name:    "bad weight",
			content: "guide_id,gene_symbol,weight\ng1,GENE_A,heavy\n",
		},
		{
			name:    "duplicate guide",
			content: "guide_id,gene_symbol\ng1,GENE_A\ng1,GENE_B\n",
		},
		{
			name:    "header only",
			content: "guide_id,gene_symbol\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "library.csv", tt.content)
			_, err := LoadLibrary(path)
			require.Error(t, err)
			assert.True(t, contract.IsDataContractError(err))
		})
	}
}

// TestLoadExperimentConfig tests metadata loading with default backfill.
func TestLoadExperimentConfig(t *testing.T) {
	path := writeTemp(t, "metadata.json", `{
  "screen_type": "dropout",
  "samples": [
    {"sample_id": "c1", "condition": "base", "replicate": "r1", "role": "control", "column_name": "ctrl"},
    {"sample_id": "t1", "condition": "late", "replicate": "r1", "role": "treatment", "column_name": "treat"}
  ]
}`)

	cfg, err := LoadExperimentConfig(path)
	require.NoError(t, err)
	assert.Equal(t, schema.DropoutScreen, cfg.ScreenType)

	// Omitted analysis options take the documented defaults.
	defaults := schema.DefaultAnalysisOptions()
	assert.Equal(t, defaults, cfg.Analysis)
}

// TestLoadExperimentConfigErrors tests metadata rejections.
func TestLoadExperimentConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown field",
			content: `{"screen_type": "dropout", "bogus": 1, "samples": []}`,
		},
		{
			name:    "invalid screen type",
			content: `{"screen_type": "sideways", "samples": [{"sample_id": "c1", "condition": "x", "replicate": "r1", "role": "control", "column_name": "a"}]}`,
		},
		{
			name:    "no treatment sample",
			content: `{"screen_type": "dropout", "samples": [{"sample_id": "c1", "condition": "x", "replicate": "r1", "role": "control", "column_name": "a"}]}`,
		},
		{
			name:    "malformed json",
			content: `{"screen_type": `,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "metadata.json", tt.content)
			_, err := LoadExperimentConfig(path)
			require.Error(t, err)
			assert.True(t, contract.IsDataContractError(err))
		})
	}
}

// TestDescribe tests the human-readable input summary.
func TestDescribe(t *testing.T) {
	counts, err := schema.NewCountsMatrix(
		[]string{"g1", "g2"},
		[]string{"s1", "s2", "s3"},
		[][]int64{{1, 2, 3}, {4, 5, 6}},
	)
	require.NoError(t, err)
	library, err := schema.NewLibraryMap([]schema.LibraryEntry{
		{GuideID: "g1", GeneSymbol: "GENE_A", Weight: 1},
		{GuideID: "g2", GeneSymbol: "GENE_B", Weight: 1},
	})
	require.NoError(t, err)
	cfg := &schema.ExperimentConfig{ScreenType: schema.DropoutScreen}

	assert.Equal(t,
		"2 guides x 3 samples, 2 library entries, 2 genes, screen type dropout",
		Describe(counts, library, cfg))
}
