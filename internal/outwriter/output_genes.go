package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// PrintAnalysisResult outputs a completed analysis, dispatching based on the
// output format configured.
func PrintAnalysisResult(result *schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtPValue := createFloatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := printJSONResult(result, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printCSVResult(result, cfg, fmtFloat, fmtPValue); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		if err := printGeneTable(result, cfg, fmtFloat, fmtPValue, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// printJSONResult handles opening the file and calling the JSON writer.
func printJSONResult(result *schema.AnalysisResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, result)
	}, "Wrote JSON")
}

// printCSVResult handles opening the file and calling the CSV writer.
func printCSVResult(result *schema.AnalysisResult, cfg *contract.Config, fmtFloat, fmtPValue func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, geneCSVHeader(), func(csvWriter *csv.Writer) error {
			return writeGeneCSVRows(csvWriter, limitGenes(result.GeneResults, cfg.ResultLimit), fmtFloat, fmtPValue)
		})
	}, "Wrote CSV")
}

func geneCSVHeader() []string {
	return []string{"rank", "gene", "score", "mean_log2fc", "median_log2fc", "var_log2fc", "p_value", "fdr", "n_guides", "significant"}
}

// writeGeneCSVRows writes gene results to a CSV writer.
func writeGeneCSVRows(w *csv.Writer, genes []schema.GeneResult, fmtFloat, fmtPValue func(float64) string) error {
	for _, g := range genes {
		row := []string{
			strconv.Itoa(g.Rank),
			g.GeneSymbol,
			fmtFloat(g.Score),
			fmtFloat(g.Log2FoldChange),
			fmtFloat(g.MedianLog2FC),
			fmtFloat(g.VarLog2FC),
			fmtPValue(g.PValue),
			fmtPValue(g.FDR),
			strconv.Itoa(g.NGuides),
			strconv.FormatBool(g.IsSignificant),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// printGeneTable prints the ranked gene results using the tablewriter API.
func printGeneTable(result *schema.AnalysisResult, cfg *contract.Config, fmtFloat, fmtPValue func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(os.Stdout)

	table.Header([]string{"Rank", "Gene", "Score", "Log2FC", "P-Value", "FDR", "Guides", "Hit"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, g := range limitGenes(result.GeneResults, cfg.ResultLimit) {
		data = append(data, []string{
			strconv.Itoa(g.Rank),
			g.GeneSymbol,
			fmtFloat(g.Score),
			fmtFloat(g.Log2FoldChange),
			fmtPValue(g.PValue),
			fmtPValue(g.FDR),
			strconv.Itoa(g.NGuides),
			contract.GetSignificanceLabel(g.IsSignificant),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := result.Summary
	fmt.Printf("Scored %d genes from %d guides (%d significant at FDR <= %g)\n",
		s.TotalGenes, s.TotalGuides, s.SignificantGenes, result.Config.Analysis.FDRThreshold)
	fmt.Printf("Analysis completed in %v using backend: %s\n", duration, s.ScoringBackend)
	for _, w := range result.Warnings {
		contract.LogWarn(fmt.Sprintf("[%s] %s", w.Code, w.Message), nil)
	}
	return nil
}

// limitGenes truncates the result list to the configured display limit.
func limitGenes(genes []schema.GeneResult, limit int) []schema.GeneResult {
	if limit > 0 && len(genes) > limit {
		return genes[:limit]
	}
	return genes
}
