package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// PrintQCMetrics outputs quality-control metrics, dispatching based on the
// output format configured.
func PrintQCMetrics(metrics []schema.QCMetric, cfg *contract.Config) error {
	fmtFloat, _ := createFloatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, metrics)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"name", "value", "unit", "severity", "threshold", "details"}
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				return writeQCCSVRows(csvWriter, metrics, fmtFloat)
			})
		}, "Wrote CSV")
	default:
		return printQCTable(metrics, cfg, fmtFloat)
	}
}

func writeQCCSVRows(w *csv.Writer, metrics []schema.QCMetric, fmtFloat func(float64) string) error {
	for _, m := range metrics {
		row := []string{
			m.Name,
			formatMetricValue(m.Value, fmtFloat),
			m.Unit,
			string(m.Severity),
			m.Threshold,
			m.Details,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func printQCTable(metrics []schema.QCMetric, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Metric", "Value", "Severity", "Threshold", "Details"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	worst := schema.SeverityOK
	detailsWidth := maxDetailsWidth(cfg)
	for _, m := range metrics {
		if schema.SeverityAtLeast(m.Severity, worst) {
			worst = m.Severity
		}
		data = append(data, []string{
			m.Name,
			formatMetricValue(m.Value, fmtFloat),
			contract.GetSeverityLabel(m.Severity),
			m.Threshold,
			truncateDetails(m.Details, detailsWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if worst == schema.SeverityCritical {
		fmt.Println("Quality gate: FAILED. Fix critical metrics before scoring.")
	} else {
		fmt.Printf("Quality gate: passed (%d metrics, worst severity: %s)\n", len(metrics), worst)
	}
	return nil
}

// maxDetailsWidth calculates the column budget left for the Details column
// after the fixed metric columns.
func maxDetailsWidth(cfg *contract.Config) int {
	// Metric + Value + Severity + Threshold with borders/padding
	baseWidth := 70
	available := GetTableWidth(cfg) - baseWidth
	if available < 20 {
		return 20
	}
	return available
}

func truncateDetails(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return s[:maxWidth]
	}
	return s[:maxWidth-3] + "..."
}

func formatMetricValue(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return "n/a"
	}
	return fmtFloat(*v)
}

// PrintRunRecords outputs run history, dispatching based on the output format
// configured.
func PrintRunRecords(runs []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"run_id", "start_time", "end_time", "total_genes", "significant_genes", "backend", "warnings"}
			return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
				return writeRunCSVRows(csvWriter, runs)
			})
		}, "Wrote CSV")
	default:
		return printRunTable(runs)
	}
}

func writeRunCSVRows(w *csv.Writer, runs []schema.RunRecord) error {
	for _, r := range runs {
		row := []string{
			fmt.Sprintf("%d", r.RunID),
			r.StartTime.Format(time.RFC3339),
			formatEndTime(r.EndTime),
			fmt.Sprintf("%d", r.TotalGenes),
			fmt.Sprintf("%d", r.SignificantGenes),
			string(r.Backend),
			fmt.Sprintf("%d", r.WarningCount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func printRunTable(runs []schema.RunRecord) error {
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Run", "Started", "Finished", "Genes", "Hits", "Backend", "Warnings"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range runs {
		data = append(data, []string{
			fmt.Sprintf("%d", r.RunID),
			r.StartTime.Format("2006-01-02 15:04:05"),
			formatEndTime(r.EndTime),
			fmt.Sprintf("%d", r.TotalGenes),
			fmt.Sprintf("%d", r.SignificantGenes),
			string(r.Backend),
			fmt.Sprintf("%d", r.WarningCount),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func formatEndTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
