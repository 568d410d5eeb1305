//go:build integration

// Package integration contains integration tests for guidepost.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
// Or use: make test-integration
package integration

import (
	"bytes"
	"encoding/csv"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyzeVerification runs a full analysis over the fixture screen and
// verifies the gene ranking against the known depletion pattern.
func TestAnalyzeVerification(t *testing.T) {
	dir := t.TempDir()
	counts, library, metadata := writeScreenFixture(t, dir)
	csvPath := filepath.Join(dir, "genes.csv")

	cmd := exec.Command(getGuidepostBinary(), "analyze",
		"--counts", counts,
		"--library", library,
		"--metadata", metadata,
		"--output-root", dir,
		"--output", "csv",
		"--output-file", csvPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.NoError(t, err, "analyze failed: %s", stderr.String())

	rows := readGeneCSV(t, csvPath)
	require.NotEmpty(t, rows)

	// GENE_A guides collapse in treatment, so it must rank first.
	top := rows[0]
	assert.Equal(t, "1", top["rank"])
	assert.Equal(t, "GENE_A", top["gene"])

	pval, err := strconv.ParseFloat(top["p_value"], 64)
	require.NoError(t, err)
	assert.Greater(t, pval, 0.0)
	assert.Less(t, pval, 1.0)

	// Dropout sign convention: depleted guides score positive.
	lfc, err := strconv.ParseFloat(top["mean_log2fc"], 64)
	require.NoError(t, err)
	assert.Positive(t, lfc, "depleted gene should score positive after the dropout sign flip")
}

// TestValidateAndQC smoke-tests the validate and qc subcommands.
func TestValidateAndQC(t *testing.T) {
	dir := t.TempDir()
	counts, library, metadata := writeScreenFixture(t, dir)

	for _, sub := range []string{"validate", "qc"} {
		cmd := exec.Command(getGuidepostBinary(), sub,
			"--counts", counts,
			"--library", library,
			"--metadata", metadata,
		)
		output, err := cmd.CombinedOutput()
		require.NoError(t, err, "%s failed: %s", sub, string(output))
	}
}

// readGeneCSV parses a gene results CSV into one map per row keyed by header.
func readGeneCSV(t *testing.T, path string) []map[string]string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(records), 2)

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			row[h] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows
}
