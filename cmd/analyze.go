package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/screenlab/guidepost/core"
	"github.com/screenlab/guidepost/internal/accel"
	"github.com/screenlab/guidepost/internal/annotate"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/enrich"
	"github.com/screenlab/guidepost/internal/mageck"
	"github.com/screenlab/guidepost/internal/outwriter"
)

// analyzeCmd runs the full screen analysis pipeline.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full screen analysis and rank genes by significance.",
	Long: `Run the complete analysis pipeline on a counts matrix:

1. Validate the counts file, guide library and experiment metadata
2. Evaluate quality control and stop on critical failures
3. Normalize counts to CPM and compute per-guide log2 fold changes
4. Score genes with robust rank aggregation (MAGeCK or in-process)
5. Correct p-values with Benjamini-Hochberg FDR
6. Persist artifacts for downstream tools

Examples:
  # Score a dropout screen with the built-in scorer
  guidepost analyze -k counts.csv --library library.csv -m experiment.json

  # Prefer the external MAGeCK tool, fall back when missing
  guidepost analyze -k counts.csv --library library.csv -m experiment.json --use-mageck

  # Tighten the significance threshold and export CSV
  guidepost analyze -k counts.csv --library library.csv -m experiment.json \
    --fdr-threshold 0.05 --output csv --output-file hits.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := requireInputPaths(); err != nil {
			contract.LogFatal("Missing required inputs", err)
		}

		pipeline := &core.Pipeline{
			Cfg:         cfg,
			External:    mageck.NewClient(cfg.MageckBinary, cfg.MageckTimeout),
			Native:      accel.NewScorer(cfg.Workers),
			Enrichment:  enrich.NewBackend(cfg.PathwayFile),
			Annotations: annotate.NewFetcher("", cfg.AnnotationCache),
			Store:       runStore,
		}

		start := time.Now()
		result, err := pipeline.Run(rootCtx)
		if err != nil {
			if contract.IsQualityGateError(err) {
				contract.LogWarn("quality gate failed, no scoring performed", nil)
			}
			contract.LogFatal("Cannot run screen analysis", err)
		}

		ow := outwriter.NewOutWriter()
		if err := ow.WriteAnalysis(result, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write analysis output", err)
		}
	},
}

// requireInputPaths enforces the three mandatory input files.
func requireInputPaths() error {
	if cfg.CountsPath == "" || cfg.LibraryPath == "" || cfg.MetadataPath == "" {
		return fmt.Errorf("counts, library and metadata paths are all required")
	}
	return nil
}
