package schema

import "time"

// GeneRow is one row of the canonical gene table. Every scoring backend,
// external or in-process, is normalized to this shape before result assembly.
type GeneRow struct {
	Gene         string  `json:"gene"`
	Score        float64 `json:"score"`
	PValue       float64 `json:"p_value"`
	FDR          float64 `json:"fdr"`
	Rank         int     `json:"rank"`
	NGuides      int     `json:"n_guides"`
	MeanLog2FC   float64 `json:"mean_log2fc"`
	MedianLog2FC float64 `json:"median_log2fc"`
	VarLog2FC    float64 `json:"var_log2fc"`
}

// GeneTable is the tabular gene-level scoring output.
type GeneTable struct {
	Backend ScoringBackend `json:"backend"`
	Rows    []GeneRow      `json:"rows"`
}

// GuideRecord carries per-guide metrics attached to a GeneResult.
type GuideRecord struct {
	GuideID        string  `json:"guide_id"`
	GeneSymbol     string  `json:"gene_symbol"`
	Weight         float64 `json:"weight"`
	Log2FoldChange float64 `json:"log2_fold_change"`
}

// GeneResult is the gene-level scoring output enriched with guide detail.
// Immutable after result assembly.
type GeneResult struct {
	GeneSymbol     string        `json:"gene_symbol"`
	Score          float64       `json:"score"`
	Log2FoldChange float64       `json:"log2_fold_change"`
	MedianLog2FC   float64       `json:"median_log2fc"`
	VarLog2FC      float64       `json:"var_log2fc"`
	PValue         float64       `json:"p_value"`
	FDR            float64       `json:"fdr"`
	Rank           int           `json:"rank"`
	NGuides        int           `json:"n_guides"`
	Guides         []GuideRecord `json:"guides,omitempty"`
	IsSignificant  bool          `json:"is_significant"`
}

// QCMetric is a single quantitative quality-control measure.
type QCMetric struct {
	Name           string     `json:"name"`
	Value          *float64   `json:"value,omitempty"`
	Unit           string     `json:"unit,omitempty"`
	Severity       QCSeverity `json:"severity"`
	Threshold      string     `json:"threshold,omitempty"`
	Details        string     `json:"details,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
}

// OK reports whether the metric severity is non-actionable.
func (m QCMetric) OK() bool {
	return m.Severity == SeverityOK || m.Severity == SeverityInfo
}

// PipelineWarning is one recoverable condition surfaced to the caller.
// Warnings are append-only and kept in chronological order.
type PipelineWarning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
}

// PathwayResult is one pathway over-representation record.
type PathwayResult struct {
	PathwayID string   `json:"pathway_id"`
	Name      string   `json:"name"`
	Source    string   `json:"source"`
	PValue    float64  `json:"p_value"`
	FDR       float64  `json:"fdr"`
	Overlap   int      `json:"overlap"`
	Genes     []string `json:"genes,omitempty"`
}

// GeneAnnotation holds external annotation data for one gene symbol.
type GeneAnnotation struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name,omitempty"`
	Summary   string `json:"summary,omitempty"`
	EntrezID  string `json:"entrez_id,omitempty"`
	EnsemblID string `json:"ensembl_id,omitempty"`
}

// ConditionStat summarizes library sizes for one experimental condition.
type ConditionStat struct {
	Condition string  `json:"condition"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// AnalysisSummary is the snapshot summary of a full run. The significant-gene
// count is set once during result assembly and is authoritative.
type AnalysisSummary struct {
	TotalGuides      int            `json:"total_guides"`
	TotalGenes       int            `json:"total_genes"`
	SignificantGenes int            `json:"significant_genes"`
	RuntimeSeconds   float64        `json:"runtime_seconds"`
	ScreenType       ScreenType     `json:"screen_type"`
	ScoringBackend   ScoringBackend `json:"scoring_backend"`
	Notes            []string       `json:"notes,omitempty"`
}

// EffectiveSettings records the backend flags that actually applied to a run,
// after fallback and environment-override resolution. Consumers read this
// snapshot, not the requested flags, to learn which backend executed.
type EffectiveSettings struct {
	UseExternalTool bool           `json:"use_external_tool"`
	UseAccelerated  bool           `json:"use_accelerated"`
	ForcedPure      bool           `json:"forced_pure"`
	BackendUsed     ScoringBackend `json:"backend_used"`
	OutputDir       string         `json:"output_dir"`
}

// AnalysisResult is the aggregate root for a completed run. Built exactly once
// at the end of a successful pipeline; a QC-gate failure never produces one.
type AnalysisResult struct {
	Config         ExperimentConfig          `json:"config"`
	Summary        AnalysisSummary           `json:"summary"`
	GeneResults    []GeneResult              `json:"gene_results"`
	QCMetrics      []QCMetric                `json:"qc_metrics"`
	PathwayResults []PathwayResult           `json:"pathway_results,omitempty"`
	ConditionStats []ConditionStat           `json:"condition_stats,omitempty"`
	Annotations    map[string]GeneAnnotation `json:"annotations,omitempty"`
	Artifacts      map[string]string         `json:"artifacts"`
	Warnings       []PipelineWarning         `json:"warnings"`
	Settings       EffectiveSettings         `json:"settings"`
}

// TopHits returns the highest-ranked significant genes up to limit.
func (r *AnalysisResult) TopHits(limit int) []GeneResult {
	hits := make([]GeneResult, 0, limit)
	for _, g := range r.GeneResults {
		if g.IsSignificant {
			hits = append(hits, g)
			if len(hits) == limit {
				break
			}
		}
	}
	return hits
}

// JobSnapshot is the public view of one background job's lifecycle.
type JobSnapshot struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
	Error       string    `json:"error,omitempty"`
}
