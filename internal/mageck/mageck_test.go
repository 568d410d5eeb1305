package mageck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

const geneSummaryHeader = "id\tnum\tneg|score\tneg|p-value\tneg|fdr\tneg|rank\tneg|goodsgrna\tneg|lfc\tpos|score\tpos|p-value\tpos|fdr\tpos|rank\tpos|goodsgrna\tpos|lfc\n"

// writeGeneSummary writes a gene summary fixture with rows deliberately out
// of rank order on both sides.
func writeGeneSummary(t *testing.T) string {
	t.Helper()
	content := geneSummaryHeader +
		"GENE_B\t4\t0.002\t0.003\t0.03\t2\t3\t1.8\t0.9\t0.95\t0.99\t1\t0\t-1.8\n" +
		"GENE_A\t4\t0.0001\t0.0005\t0.002\t1\t4\t2.4\t0.8\t0.9\t0.99\t2\t0\t-2.4\n" +
		"CTRL_NT\t4\t0.7\t0.8\t0.9\t3\t0\t0.05\t0.6\t0.7\t0.9\t3\t0\t-0.05\n"
	path := filepath.Join(t.TempDir(), "mageck.gene_summary.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestParseGeneSummaryDropout verifies that dropout screens read the neg|
// columns and that rows come back sorted by rank regardless of file order.
func TestParseGeneSummaryDropout(t *testing.T) {
	path := writeGeneSummary(t)

	table, err := ParseGeneSummary(path, schema.DropoutScreen)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, schema.ExternalBackend, table.Backend)

	top := table.Rows[0]
	assert.Equal(t, "GENE_A", top.Gene)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 4, top.NGuides)
	assert.InDelta(t, 0.0001, top.Score, 1e-12)
	assert.InDelta(t, 0.0005, top.PValue, 1e-12)
	assert.InDelta(t, 0.002, top.FDR, 1e-12)
	assert.InDelta(t, 2.4, top.MeanLog2FC, 1e-12)

	assert.Equal(t, "GENE_B", table.Rows[1].Gene)
	assert.Equal(t, "CTRL_NT", table.Rows[2].Gene)
}

// TestParseGeneSummaryEnrichment verifies that enrichment screens read the
// pos| column family instead.
func TestParseGeneSummaryEnrichment(t *testing.T) {
	path := writeGeneSummary(t)

	table, err := ParseGeneSummary(path, schema.EnrichmentScreen)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	top := table.Rows[0]
	assert.Equal(t, "GENE_B", top.Gene)
	assert.Equal(t, 1, top.Rank)
	assert.InDelta(t, 0.9, top.Score, 1e-12)
	assert.InDelta(t, -1.8, top.MeanLog2FC, 1e-12)
}

// TestParseGeneSummaryErrors verifies that missing files, truncated output
// and malformed columns all surface as execution errors against the tool.
func TestParseGeneSummaryErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "header only",
			content: geneSummaryHeader,
		},
		{
			name:    "missing neg columns",
			content: "id\tnum\tpos|score\tpos|p-value\tpos|fdr\tpos|rank\tpos|lfc\nGENE_A\t4\t0.9\t0.9\t0.99\t1\t-2.4\n",
		},
		{
			name:    "unparseable score",
			content: geneSummaryHeader + "GENE_A\t4\tnot-a-number\t0.0005\t0.002\t1\t4\t2.4\t0.8\t0.9\t0.99\t2\t0\t-2.4\n",
		},
		{
			name:    "ragged row",
			content: geneSummaryHeader + "GENE_A\t4\t0.0001\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mageck.gene_summary.txt")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			table, err := ParseGeneSummary(path, schema.DropoutScreen)
			assert.Nil(t, table)
			var execErr *contract.ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, "mageck", execErr.Tool)
		})
	}

	_, err := ParseGeneSummary(filepath.Join(t.TempDir(), "missing.txt"), schema.DropoutScreen)
	var execErr *contract.ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func scoreConfig() *schema.ExperimentConfig {
	return &schema.ExperimentConfig{
		ScreenType: schema.DropoutScreen,
		Samples: []schema.Sample{
			{SampleID: "c1", Condition: "plasmid", Role: schema.ControlRole, ColumnName: "ctrl_1"},
			{SampleID: "t1", Condition: "day21", Role: schema.TreatmentRole, ColumnName: "treat_1"},
		},
		Analysis: schema.DefaultAnalysisOptions(),
	}
}

// TestClientScoreContractViolations verifies that bad inputs are classified
// as contract violations before the binary is ever invoked.
func TestClientScoreContractViolations(t *testing.T) {
	c := NewClient("definitely-not-a-real-mageck", time.Second)

	table, outcome := c.Score(context.Background(), "", scoreConfig(), t.TempDir())
	assert.Nil(t, table)
	assert.Equal(t, contract.OutcomeContractViolation, outcome.Kind)
	assert.True(t, contract.IsDataContractError(outcome.Err))

	cfg := scoreConfig()
	cfg.Samples = cfg.Samples[:1] // control only
	table, outcome = c.Score(context.Background(), "counts.csv", cfg, t.TempDir())
	assert.Nil(t, table)
	assert.Equal(t, contract.OutcomeContractViolation, outcome.Kind)
}

// TestClientScoreMissingBinary verifies that a failed invocation demotes to
// an execution failure rather than an error return.
func TestClientScoreMissingBinary(t *testing.T) {
	c := NewClient("definitely-not-a-real-mageck", time.Second)
	require.False(t, c.IsAvailable())

	table, outcome := c.Score(context.Background(), "counts.csv", scoreConfig(), t.TempDir())
	assert.Nil(t, table)
	assert.Equal(t, contract.OutcomeExecutionFailed, outcome.Kind)
	var execErr *contract.ExecutionError
	require.True(t, errors.As(outcome.Err, &execErr))
	assert.NotEmpty(t, outcome.Detail)
}

// TestNewClientDefaults verifies binary and timeout fallbacks.
func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, contract.DefaultMageckPath, c.Binary)
	assert.Equal(t, contract.DefaultToolTimeout, c.Timeout)

	custom := NewClient("/opt/bin/mageck", 5*time.Second)
	assert.Equal(t, "/opt/bin/mageck", custom.Binary)
	assert.Equal(t, 5*time.Second, custom.Timeout)
}
