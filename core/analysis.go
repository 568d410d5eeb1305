package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/loader"
	"github.com/screenlab/guidepost/internal/outwriter"
	"github.com/screenlab/guidepost/schema"
)

// Pipeline orchestrates one full screen analysis: load, QC gate, normalize,
// score, enrich, annotate, assemble and persist. Optional collaborators may
// be nil; their stages degrade to warnings instead of failing the run.
type Pipeline struct {
	Cfg         *contract.Config
	External    contract.ExternalScorer
	Native      contract.NativeScorer
	Enrichment  contract.EnrichmentBackend
	Annotations contract.AnnotationFetcher
	Store       contract.RunStore
}

// Fingerprint identifies one analysis request for job coalescing. Two
// requests with the same inputs and backend flags share a fingerprint.
func (p *Pipeline) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%t|%t|%t|%g|%d",
		p.Cfg.CountsPath, p.Cfg.LibraryPath, p.Cfg.MetadataPath,
		p.Cfg.UseExternalTool, p.Cfg.UseAccelerated, p.Cfg.ForcedPure,
		p.Cfg.FDRThreshold, p.Cfg.MinCount)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Run executes the pipeline. A critical QC metric aborts the run with a
// QualityGateError before any scoring artifact is written.
func (p *Pipeline) Run(ctx context.Context) (*schema.AnalysisResult, error) {
	start := time.Now()

	// --- 1. Load and validate inputs ---
	counts, library, cfg, err := p.loadInputs()
	if err != nil {
		return nil, err
	}

	runID := p.beginRunRecord(start)

	// --- 2. Quality-control gate ---
	metrics, err := EvaluateQC(counts, library, cfg)
	if err != nil {
		return nil, err
	}
	if critical := CriticalMetrics(metrics); len(critical) > 0 {
		return nil, &contract.QualityGateError{Metrics: critical}
	}

	// --- 3. Normalize and compute fold changes ---
	cpm, err := NormalizeCPM(counts, DefaultPseudoCount)
	if err != nil {
		return nil, err
	}
	log2fc, err := ComputeLog2FoldChange(cpm, cfg, DefaultPseudoCount)
	if err != nil {
		return nil, err
	}
	records := BuildGuideRecords(cpm.Guides, log2fc, library)
	if len(records) == 0 {
		return nil, contract.NewDataContractError("no counts guide maps to a library gene")
	}

	// --- 4. Score through the backend tiers ---
	// The external tool writes its own files under the run directory during
	// scoring, so it must exist before dispatch.
	outputDir := p.makeOutputDir(start)
	if mkErr := os.MkdirAll(outputDir, 0o755); mkErr != nil {
		contract.LogWarn("failed to create run output directory", mkErr)
	}
	dispatcher := &Dispatcher{External: p.External, Native: p.Native}
	table, warnings, err := dispatcher.Score(ctx, DispatchRequest{
		CountsPath:      p.Cfg.CountsPath,
		Config:          cfg,
		OutputDir:       outputDir,
		Records:         records,
		UseExternalTool: p.Cfg.UseExternalTool,
		UseAccelerated:  p.Cfg.UseAccelerated,
	})
	if err != nil {
		return nil, err
	}

	// --- 5. Assemble gene results ---
	results, significant, err := AssembleResult(table, records, cfg)
	if err != nil {
		return nil, err
	}

	// --- 6. Optional enrichment and annotation ---
	pathways, enrichWarnings := p.runEnrichment(ctx, results, library, cfg)
	warnings = append(warnings, enrichWarnings...)

	annotations, annotWarnings := p.runAnnotation(ctx, results, cfg)
	warnings = append(warnings, annotWarnings...)

	// --- 7. Build the aggregate result ---
	result := &schema.AnalysisResult{
		Config: *cfg,
		Summary: schema.AnalysisSummary{
			TotalGuides:      len(records),
			TotalGenes:       len(results),
			SignificantGenes: significant,
			RuntimeSeconds:   time.Since(start).Seconds(),
			ScreenType:       cfg.ScreenType,
			ScoringBackend:   table.Backend,
		},
		GeneResults:    results,
		QCMetrics:      metrics,
		PathwayResults: pathways,
		ConditionStats: ComputeConditionStats(counts, cfg),
		Annotations:    annotations,
		Artifacts:      make(map[string]string),
		Settings: schema.EffectiveSettings{
			UseExternalTool: p.Cfg.UseExternalTool,
			UseAccelerated:  p.Cfg.UseAccelerated,
			ForcedPure:      p.Cfg.ForcedPure,
			BackendUsed:     table.Backend,
			OutputDir:       outputDir,
		},
	}

	// --- 8. Persist artifacts, best effort ---
	warnings = append(warnings, p.writeArtifacts(outputDir, result, cpm)...)
	result.Warnings = warnings

	p.endRunRecord(runID, result)
	return result, nil
}

// loadInputs reads the three input files and applies config-level overrides
// on top of the experiment metadata.
func (p *Pipeline) loadInputs() (*schema.CountsMatrix, *schema.LibraryMap, *schema.ExperimentConfig, error) {
	counts, err := loader.LoadCountsMatrix(p.Cfg.CountsPath)
	if err != nil {
		return nil, nil, nil, err
	}
	library, err := loader.LoadLibrary(p.Cfg.LibraryPath)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := loader.LoadExperimentConfig(p.Cfg.MetadataPath)
	if err != nil {
		return nil, nil, nil, err
	}

	if p.Cfg.FDRThreshold > 0 {
		cfg.Analysis.FDRThreshold = p.Cfg.FDRThreshold
	}
	if p.Cfg.MinCount >= 0 {
		cfg.Analysis.MinCountThreshold = p.Cfg.MinCount
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, contract.WrapDataContractError(err, "invalid experiment metadata")
	}
	for _, col := range cfg.SampleColumns() {
		if !counts.HasColumn(col) {
			return nil, nil, nil, contract.NewDataContractError("metadata references column %q that the counts file lacks", col)
		}
	}
	return counts, library, cfg, nil
}

func (p *Pipeline) makeOutputDir(start time.Time) string {
	return filepath.Join(p.Cfg.OutputRoot, "run_"+start.Format("20060102_150405"))
}

// runEnrichment performs pathway over-representation on the significant hits.
// Never fatal.
func (p *Pipeline) runEnrichment(ctx context.Context, results []schema.GeneResult, library *schema.LibraryMap, cfg *schema.ExperimentConfig) ([]schema.PathwayResult, []schema.PipelineWarning) {
	if !cfg.Analysis.EnablePathway {
		return nil, nil
	}
	if p.Enrichment == nil || !p.Enrichment.IsAvailable() {
		return nil, []schema.PipelineWarning{{
			Code:    schema.WarnEnrichmentUnavailable,
			Message: "pathway enrichment backend unavailable; skipping",
		}}
	}

	var hits []string
	for _, g := range results {
		if g.IsSignificant {
			hits = append(hits, g.GeneSymbol)
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	pathways, outcome := p.Enrichment.Run(ctx, hits, library.Genes(), cfg.Analysis.FDRThreshold)
	if !outcome.Succeeded() {
		return nil, []schema.PipelineWarning{{
			Code:    schema.WarnEnrichmentFailed,
			Message: "pathway enrichment failed; continuing without pathways",
			Details: outcome.Detail,
		}}
	}
	return pathways, nil
}

// runAnnotation fetches annotations for the significant hits. Partial
// failures surface per-gene warnings; never fatal.
func (p *Pipeline) runAnnotation(ctx context.Context, results []schema.GeneResult, cfg *schema.ExperimentConfig) (map[string]schema.GeneAnnotation, []schema.PipelineWarning) {
	if !cfg.Analysis.EnableAnnotation || p.Annotations == nil {
		return nil, nil
	}

	var symbols []string
	for _, g := range results {
		if g.IsSignificant {
			symbols = append(symbols, g.GeneSymbol)
		}
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	annotations, failed, err := p.Annotations.Fetch(ctx, symbols)
	if err != nil {
		return nil, []schema.PipelineWarning{{
			Code:    schema.WarnAnnotationPartial,
			Message: "gene annotation fetch failed; continuing without annotations",
			Details: err.Error(),
		}}
	}
	if len(failed) > 0 {
		return annotations, []schema.PipelineWarning{{
			Code:    schema.WarnAnnotationPartial,
			Message: fmt.Sprintf("annotation missing for %d of %d genes", len(failed), len(symbols)),
			Details: strings.Join(failed, ", "),
		}}
	}
	return annotations, nil
}

// writeArtifacts persists run outputs into the timestamped output directory.
// Each artifact write is independent; a failure is recorded as a warning and
// the remaining artifacts are still attempted.
func (p *Pipeline) writeArtifacts(outputDir string, result *schema.AnalysisResult, cpm *schema.FloatMatrix) []schema.PipelineWarning {
	var warnings []schema.PipelineWarning
	fail := func(name string, err error) {
		warnings = append(warnings, schema.PipelineWarning{
			Code:    schema.WarnArtifactWriteFailed,
			Message: fmt.Sprintf("failed to write %s", name),
			Details: err.Error(),
		})
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fail("output directory", err)
		return warnings
	}

	write := func(name string, fn func(string) error) {
		path := filepath.Join(outputDir, name)
		if err := fn(path); err != nil {
			fail(name, err)
			return
		}
		result.Artifacts[name] = path
	}

	write("gene_results.csv", func(path string) error {
		return outwriter.WriteGeneResultsCSV(path, result.GeneResults, p.Cfg.Precision)
	})
	write("normalized_counts.csv", func(path string) error {
		return outwriter.WriteFloatMatrixCSV(path, cpm, p.Cfg.Precision)
	})
	write("qc_metrics.json", func(path string) error {
		return outwriter.WriteJSONFile(path, result.QCMetrics)
	})
	write("pipeline_settings.json", func(path string) error {
		return outwriter.WriteJSONFile(path, result.Settings)
	})
	write("gene_results.parquet", func(path string) error {
		return outwriter.WriteGeneResultsParquet(path, result.GeneResults)
	})
	// The aggregate snapshot goes last so it reflects the artifact map.
	write("analysis_result.json", func(path string) error {
		return outwriter.WriteJSONFile(path, result)
	})

	return warnings
}

// beginRunRecord opens a run-store record. Store failures are logged, never
// fatal; a zero runID disables further store calls for the run.
func (p *Pipeline) beginRunRecord(start time.Time) int64 {
	if p.Store == nil {
		return 0
	}
	runID, err := p.Store.BeginRun(start, map[string]any{
		"counts":   p.Cfg.CountsPath,
		"library":  p.Cfg.LibraryPath,
		"metadata": p.Cfg.MetadataPath,
	})
	if err != nil {
		contract.LogWarn("run store unavailable, history disabled for this run", err)
		return 0
	}
	return runID
}

func (p *Pipeline) endRunRecord(runID int64, result *schema.AnalysisResult) {
	if p.Store == nil || runID == 0 {
		return
	}
	for _, w := range result.Warnings {
		if err := p.Store.RecordWarning(runID, w); err != nil {
			contract.LogWarn("failed to record run warning", err)
			break
		}
	}
	err := p.Store.EndRun(runID, time.Now(),
		result.Summary.TotalGenes, result.Summary.SignificantGenes, result.Summary.ScoringBackend)
	if err != nil {
		contract.LogWarn("failed to finalize run record", err)
	}
}
