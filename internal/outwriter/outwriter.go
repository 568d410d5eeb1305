// Package outwriter has output and writer logic for analysis results,
// quality-control reports, run history and persisted artifacts.
package outwriter

import (
	"os"
	"time"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnalysis prints a completed analysis using the configured output format.
func (ow *OutWriter) WriteAnalysis(result *schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	return PrintAnalysisResult(result, cfg, duration)
}

// WriteQC prints quality-control metrics using the configured output format.
func (ow *OutWriter) WriteQC(metrics []schema.QCMetric, cfg *contract.Config) error {
	return PrintQCMetrics(metrics, cfg)
}

// WriteRuns prints run history using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	return PrintRunRecords(runs, cfg)
}

// GetTableWidth returns the usable terminal width for table rendering,
// honoring the width override from flag or env.
func GetTableWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		// Conservative default for narrow terminals and CI.
		return 80
	}
	return detected
}
