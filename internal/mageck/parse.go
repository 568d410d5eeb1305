package mageck

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// ParseGeneSummary reads a mageck gene_summary.txt and maps it onto the
// canonical gene table. Dropout screens read the neg| columns, enrichment
// screens the pos| columns.
func ParseGeneSummary(path string, screenType schema.ScreenType) (*schema.GeneTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &contract.ExecutionError{
			Tool:    "mageck",
			Message: "gene summary output not found",
			Err:     err,
		}
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &contract.ExecutionError{Tool: "mageck", Message: "malformed gene summary", Err: err}
	}
	if len(rows) < 2 {
		return nil, &contract.ExecutionError{Tool: "mageck", Message: "gene summary has no data rows"}
	}

	side := "neg"
	if screenType == schema.EnrichmentScreen {
		side = "pos"
	}
	col := make(map[string]int, len(rows[0]))
	for j, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = j
	}
	required := []string{"id", "num", side + "|score", side + "|p-value", side + "|fdr", side + "|rank", side + "|lfc"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, &contract.ExecutionError{Tool: "mageck", Message: "gene summary is missing column " + name}
		}
	}

	table := &schema.GeneTable{Backend: schema.ExternalBackend}
	for _, row := range rows[1:] {
		geneRow := schema.GeneRow{Gene: row[col["id"]]}
		var parseErr error
		geneRow.NGuides, parseErr = atoiField(row, col["num"], parseErr)
		geneRow.Score, parseErr = floatField(row, col[side+"|score"], parseErr)
		geneRow.PValue, parseErr = floatField(row, col[side+"|p-value"], parseErr)
		geneRow.FDR, parseErr = floatField(row, col[side+"|fdr"], parseErr)
		geneRow.Rank, parseErr = atoiField(row, col[side+"|rank"], parseErr)
		geneRow.MeanLog2FC, parseErr = floatField(row, col[side+"|lfc"], parseErr)
		if parseErr != nil {
			return nil, &contract.ExecutionError{
				Tool:    "mageck",
				Message: "unparseable gene summary row for " + geneRow.Gene,
				Err:     parseErr,
			}
		}
		table.Rows = append(table.Rows, geneRow)
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Rank < table.Rows[j].Rank
	})
	return table, nil
}

func atoiField(row []string, j int, prev error) (int, error) {
	if prev != nil {
		return 0, prev
	}
	v, err := strconv.Atoi(strings.TrimSpace(row[j]))
	if err != nil {
		return 0, err
	}
	return v, nil
}

func floatField(row []string, j int, prev error) (float64, error) {
	if prev != nil {
		return 0, prev
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
