package core

import (
	"fmt"
	"math"

	"github.com/screenlab/guidepost/core/algo"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// Replicate correlation thresholds (Pearson on log2 counts).
const (
	replicateCorrOK   = 0.9
	replicateCorrWarn = 0.7
)

// Guide detection thresholds (fraction of guides above the count floor).
const (
	detectionOK   = 0.9
	detectionWarn = 0.75
)

// Control MAD tolerance as a fraction of the mean control signal.
const controlMADTolerance = 0.25

// EvaluateQC computes all quality-control metric families from raw counts,
// library and experiment config. Severities are attached per metric; the
// caller decides whether any critical metric gates the run.
func EvaluateQC(counts *schema.CountsMatrix, library *schema.LibraryMap, cfg *schema.ExperimentConfig) ([]schema.QCMetric, error) {
	if counts == nil || counts.NumGuides() == 0 {
		return nil, contract.NewDataContractError("counts matrix is empty; cannot compute QC metrics")
	}
	for _, col := range cfg.SampleColumns() {
		if !counts.HasColumn(col) {
			return nil, contract.NewDataContractError("counts matrix missing expected sample column %q", col)
		}
	}

	var metrics []schema.QCMetric
	metrics = append(metrics, replicateCorrelations(counts, cfg)...)
	metrics = append(metrics, guideDetection(counts, cfg)...)
	metrics = append(metrics, libraryCoverage(counts, library))
	metrics = append(metrics, controlStability(counts, cfg))
	return metrics, nil
}

// CriticalMetrics returns the subset of metrics with critical severity.
func CriticalMetrics(metrics []schema.QCMetric) []schema.QCMetric {
	var critical []schema.QCMetric
	for _, m := range metrics {
		if m.Severity == schema.SeverityCritical {
			critical = append(critical, m)
		}
	}
	return critical
}

// replicateCorrelations computes pairwise Pearson correlations on
// log2(counts+1) between replicate columns within each condition.
func replicateCorrelations(counts *schema.CountsMatrix, cfg *schema.ExperimentConfig) []schema.QCMetric {
	byCondition := make(map[string][]string)
	var conditionOrder []string
	for _, s := range cfg.Samples {
		if _, seen := byCondition[s.Condition]; !seen {
			conditionOrder = append(conditionOrder, s.Condition)
		}
		byCondition[s.Condition] = append(byCondition[s.Condition], s.ColumnName)
	}

	var metrics []schema.QCMetric
	for _, condition := range conditionOrder {
		columns := byCondition[condition]
		if len(columns) < 2 {
			continue
		}
		for a := 0; a < len(columns); a++ {
			for b := a + 1; b < len(columns); b++ {
				left := logColumn(counts, columns[a])
				right := logColumn(counts, columns[b])
				corr := algo.PearsonCorrelation(left, right)
				severity := classifyCorrelation(corr)

				metric := schema.QCMetric{
					Name:      fmt.Sprintf("Replicate correlation (%s: %s vs %s)", condition, columns[a], columns[b]),
					Severity:  severity,
					Threshold: fmt.Sprintf(">= %.2f ideal", replicateCorrOK),
					Details:   "Pearson correlation on log2 counts.",
				}
				if !math.IsNaN(corr) {
					v := corr
					metric.Value = &v
				}
				if severity != schema.SeverityOK {
					metric.Recommendation = "Investigate library prep or sequencing for low-correlation replicates."
				}
				metrics = append(metrics, metric)
			}
		}
	}

	if len(metrics) == 0 {
		metrics = append(metrics, schema.QCMetric{
			Name:     "Replicate correlation",
			Severity: schema.SeverityInfo,
			Details:  "Not computed: fewer than two replicates per condition.",
		})
	}
	return metrics
}

// guideDetection computes the fraction of guides at or above the configured
// count floor for each sample column.
func guideDetection(counts *schema.CountsMatrix, cfg *schema.ExperimentConfig) []schema.QCMetric {
	total := counts.NumGuides()
	minCount := cfg.Analysis.MinCountThreshold

	var metrics []schema.QCMetric
	for _, col := range cfg.SampleColumns() {
		values, _ := counts.Column(col)
		detected := 0
		for _, v := range values {
			if v >= minCount {
				detected++
			}
		}
		ratio := float64(detected) / float64(total)
		severity := classifyRatio(ratio, detectionOK, detectionWarn)

		metric := schema.QCMetric{
			Name:      fmt.Sprintf("Guide detection (%s)", col),
			Unit:      "fraction",
			Severity:  severity,
			Threshold: fmt.Sprintf(">= %.0f%% ideal", detectionOK*100),
			Details:   fmt.Sprintf("%d/%d guides at or above %d reads.", detected, total, minCount),
		}
		v := ratio
		metric.Value = &v
		if severity != schema.SeverityOK {
			metric.Recommendation = "Low detection suggests library bottlenecking or sequencing issues."
		}
		metrics = append(metrics, metric)
	}
	return metrics
}

// libraryCoverage reports the fraction of library guides present in the
// counts matrix. Anything below 100% is a warning.
func libraryCoverage(counts *schema.CountsMatrix, library *schema.LibraryMap) schema.QCMetric {
	missing := 0
	for _, e := range library.Entries {
		if !counts.HasGuide(e.GuideID) {
			missing++
		}
	}

	severity := schema.SeverityOK
	if missing > 0 {
		severity = schema.SeverityWarning
	}
	coverage := 1 - float64(missing)/float64(library.Len())

	metric := schema.QCMetric{
		Name:      "Library coverage",
		Unit:      "fraction",
		Severity:  severity,
		Threshold: "100% coverage ideal",
		Details:   fmt.Sprintf("%d/%d guides missing from counts.", missing, library.Len()),
	}
	v := coverage
	metric.Value = &v
	if missing > 0 {
		metric.Recommendation = "Double-check mapping or library completeness."
	}
	return metric
}

// controlStability checks control replicate consistency via the median
// absolute deviation against a tolerance derived from the mean control
// signal.
func controlStability(counts *schema.CountsMatrix, cfg *schema.ExperimentConfig) schema.QCMetric {
	controlCols := cfg.ControlColumns()
	if len(controlCols) == 0 {
		return schema.QCMetric{
			Name:     "Control stability",
			Severity: schema.SeverityInfo,
			Details:  "No control samples defined.",
		}
	}

	columns := make([][]float64, len(controlCols))
	for j, col := range controlCols {
		raw, _ := counts.Column(col)
		columns[j] = make([]float64, len(raw))
		for i, v := range raw {
			columns[j][i] = float64(v)
		}
	}

	numGuides := counts.NumGuides()
	rowMedians := make([]float64, numGuides)
	rowValues := make([]float64, len(controlCols))
	for i := 0; i < numGuides; i++ {
		for j := range columns {
			rowValues[j] = columns[j][i]
		}
		rowMedians[i] = algo.Median(rowValues)
	}

	// Median absolute deviation per column, then the median across columns.
	columnMADs := make([]float64, len(controlCols))
	deviations := make([]float64, numGuides)
	var signalSum float64
	for j := range columns {
		for i := 0; i < numGuides; i++ {
			deviations[i] = math.Abs(columns[j][i] - rowMedians[i])
			signalSum += columns[j][i]
		}
		columnMADs[j] = algo.Median(deviations)
	}
	mad := algo.Median(columnMADs)

	meanSignal := signalSum / float64(numGuides*len(controlCols))
	tolerance := controlMADTolerance * (meanSignal + 1)

	severity := schema.SeverityOK
	if mad > tolerance {
		severity = schema.SeverityWarning
	}

	metric := schema.QCMetric{
		Name:     "Control MAD",
		Severity: severity,
		Details:  fmt.Sprintf("Median absolute deviation across control replicates (threshold %.2f).", tolerance),
	}
	v := mad
	metric.Value = &v
	if severity != schema.SeverityOK {
		metric.Recommendation = "Large MAD suggests inconsistent control replicates."
	}
	return metric
}

func classifyCorrelation(corr float64) schema.QCSeverity {
	if math.IsNaN(corr) {
		return schema.SeverityWarning
	}
	if corr >= replicateCorrOK {
		return schema.SeverityOK
	}
	if corr >= replicateCorrWarn {
		return schema.SeverityWarning
	}
	return schema.SeverityCritical
}

func classifyRatio(ratio, okThreshold, warnThreshold float64) schema.QCSeverity {
	if ratio >= okThreshold {
		return schema.SeverityOK
	}
	if ratio >= warnThreshold {
		return schema.SeverityWarning
	}
	return schema.SeverityCritical
}

func logColumn(counts *schema.CountsMatrix, name string) []float64 {
	raw, _ := counts.Column(name)
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = math.Log2(float64(v) + 1)
	}
	return out
}
