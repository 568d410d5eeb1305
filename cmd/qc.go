package cmd

import (
	"github.com/spf13/cobra"

	"github.com/screenlab/guidepost/core"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/loader"
	"github.com/screenlab/guidepost/internal/outwriter"
	"github.com/screenlab/guidepost/schema"
)

// qcCmd evaluates quality control without scoring.
var qcCmd = &cobra.Command{
	Use:   "qc",
	Short: "Evaluate screen quality control without scoring genes.",
	Long: `Compute quality-control metrics on a counts matrix: replicate
correlation, guide detection rate, library coverage and control stability.

A critical metric here would also fail the analyze command's quality gate,
so qc is the cheap way to check a screen before a full run.

Examples:
  guidepost qc -k counts.csv --library library.csv -m experiment.json
  guidepost qc -k counts.csv --library library.csv -m experiment.json --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := requireInputPaths(); err != nil {
			contract.LogFatal("Missing required inputs", err)
		}

		counts, library, expCfg, err := loadAll()
		if err != nil {
			contract.LogFatal("Cannot load inputs", err)
		}
		metrics, err := core.EvaluateQC(counts, library, expCfg)
		if err != nil {
			contract.LogFatal("Cannot evaluate quality control", err)
		}

		ow := outwriter.NewOutWriter()
		if err := ow.WriteQC(metrics, cfg); err != nil {
			contract.LogFatal("Cannot write QC output", err)
		}
	},
}

// validateCmd checks the three input files for contract violations.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the counts, library and metadata files.",
	Long: `Parse and cross-check the three input files without running any
analysis. Reports duplicate guides, ragged rows, negative counts, unknown
sample roles and metadata columns missing from the counts file.`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := requireInputPaths(); err != nil {
			contract.LogFatal("Missing required inputs", err)
		}

		counts, library, expCfg, err := loadAll()
		if err != nil {
			contract.LogFatal("Input validation failed", err)
		}
		for _, col := range expCfg.SampleColumns() {
			if !counts.HasColumn(col) {
				contract.LogFatal("Input validation failed",
					contract.NewDataContractError("metadata references column %q that the counts file lacks", col))
			}
		}
		contract.LogInfo("✅ Inputs are valid: " + loader.Describe(counts, library, expCfg))
	},
}

// loadAll reads the three input files with config-level overrides applied.
func loadAll() (*schema.CountsMatrix, *schema.LibraryMap, *schema.ExperimentConfig, error) {
	c, err := loader.LoadCountsMatrix(cfg.CountsPath)
	if err != nil {
		return nil, nil, nil, err
	}
	l, err := loader.LoadLibrary(cfg.LibraryPath)
	if err != nil {
		return nil, nil, nil, err
	}
	e, err := loader.LoadExperimentConfig(cfg.MetadataPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.FDRThreshold > 0 {
		e.Analysis.FDRThreshold = cfg.FDRThreshold
	}
	if cfg.MinCount >= 0 {
		e.Analysis.MinCountThreshold = cfg.MinCount
	}
	return c, l, e, nil
}
