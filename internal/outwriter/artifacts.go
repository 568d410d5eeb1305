package outwriter

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/screenlab/guidepost/schema"
)

// WriteGeneResultsCSV persists the full ranked gene table to a CSV artifact.
func WriteGeneResultsCSV(path string, genes []schema.GeneResult, precision int) error {
	fmtFloat, fmtPValue := createFloatFormatter(precision)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gene results file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return writeCSVWithHeader(f, geneCSVHeader(), func(w *csv.Writer) error {
		return writeGeneCSVRows(w, genes, fmtFloat, fmtPValue)
	})
}

// WriteFloatMatrixCSV persists a derived matrix, such as CPM-normalized
// counts, with guides as rows and samples as columns.
func WriteFloatMatrixCSV(path string, matrix *schema.FloatMatrix, precision int) error {
	fmtFloat, _ := createFloatFormatter(precision)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create matrix file: %w", err)
	}
	defer func() { _ = f.Close() }()

	header := append([]string{"guide_id"}, matrix.Columns...)
	return writeCSVWithHeader(f, header, func(w *csv.Writer) error {
		for i, guide := range matrix.Guides {
			row := make([]string, 0, len(matrix.Columns)+1)
			row = append(row, guide)
			for _, v := range matrix.Values[i] {
				row = append(row, fmtFloat(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteJSONFile persists any value as an indented JSON artifact.
func WriteJSONFile(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return writeJSON(f, data)
}

// GeneResultRow is the flat parquet projection of one gene result.
// The schema is derived from the struct tags.
type GeneResultRow struct {
	Gene           string  `parquet:"gene,snappy"`
	Score          float64 `parquet:"score,snappy"`
	Log2FoldChange float64 `parquet:"mean_log2fc,snappy"`
	MedianLog2FC   float64 `parquet:"median_log2fc,snappy"`
	VarLog2FC      float64 `parquet:"var_log2fc,snappy"`
	PValue         float64 `parquet:"p_value,snappy"`
	FDR            float64 `parquet:"fdr,snappy"`
	Rank           int32   `parquet:"rank,snappy"`
	NGuides        int32   `parquet:"n_guides,snappy"`
	Significant    bool    `parquet:"significant,snappy"`
}

// WriteGeneResultsParquet persists the gene table as a Parquet artifact for
// downstream analytics tools.
func WriteGeneResultsParquet(path string, genes []schema.GeneResult) error {
	rows := make([]GeneResultRow, len(genes))
	for i, g := range genes {
		rows[i] = GeneResultRow{
			Gene:           g.GeneSymbol,
			Score:          g.Score,
			Log2FoldChange: g.Log2FoldChange,
			MedianLog2FC:   g.MedianLog2FC,
			VarLog2FC:      g.VarLog2FC,
			PValue:         g.PValue,
			FDR:            g.FDR,
			Rank:           int32(g.Rank),
			NGuides:        int32(g.NGuides),
			Significant:    g.IsSignificant,
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[GeneResultRow](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
