package schema

import "fmt"

// Sample describes a single sample column in the counts matrix.
type Sample struct {
	SampleID   string     `json:"sample_id"`
	Condition  string     `json:"condition"`
	Replicate  string     `json:"replicate"`
	Role       SampleRole `json:"role"`
	ColumnName string     `json:"column_name"`
}

// IsControl reports whether the sample is a control.
func (s Sample) IsControl() bool { return s.Role == ControlRole }

// IsTreatment reports whether the sample is a treatment.
func (s Sample) IsTreatment() bool { return s.Role == TreatmentRole }

// AnalysisOptions holds analysis toggles and thresholds.
type AnalysisOptions struct {
	FDRThreshold      float64 `json:"fdr_threshold"`
	MinCountThreshold int64   `json:"min_count_threshold"`
	MinGuidesPerGene  int     `json:"min_guides_per_gene"`
	EnablePathway     bool    `json:"enable_pathway"`
	EnableAnnotation  bool    `json:"enable_annotation"`
}

// DefaultAnalysisOptions returns the documented option defaults.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		FDRThreshold:      0.1,
		MinCountThreshold: 10,
		MinGuidesPerGene:  2,
		EnablePathway:     true,
	}
}

// ExperimentConfig is the top-level description of a screen analysis run.
// It is immutable once validated; every downstream stage reads it as-is.
type ExperimentConfig struct {
	ExperimentName string          `json:"experiment_name,omitempty"`
	LibraryName    string          `json:"library_name,omitempty"`
	ScreenType     ScreenType      `json:"screen_type"`
	Samples        []Sample        `json:"samples"`
	Analysis       AnalysisOptions `json:"analysis"`
}

// Validate enforces the experiment data contract: unique sample IDs and
// columns, known roles, a valid screen type, at least one control and one
// treatment sample, and sane thresholds.
func (c *ExperimentConfig) Validate() error {
	if len(c.Samples) == 0 {
		return fmt.Errorf("at least one sample configuration is required")
	}
	if _, ok := ValidScreenTypes[c.ScreenType]; !ok {
		return fmt.Errorf("invalid screen type %q. must be dropout or enrichment", c.ScreenType)
	}

	seenIDs := make(map[string]struct{}, len(c.Samples))
	seenColumns := make(map[string]struct{}, len(c.Samples))
	var hasControl, hasTreatment bool
	for _, s := range c.Samples {
		if s.SampleID == "" || s.ColumnName == "" {
			return fmt.Errorf("sample entries require non-empty sample_id and column_name")
		}
		if _, dup := seenIDs[s.SampleID]; dup {
			return fmt.Errorf("duplicate sample_id %q", s.SampleID)
		}
		seenIDs[s.SampleID] = struct{}{}
		if _, dup := seenColumns[s.ColumnName]; dup {
			return fmt.Errorf("duplicate sample column %q", s.ColumnName)
		}
		seenColumns[s.ColumnName] = struct{}{}
		if _, ok := ValidSampleRoles[s.Role]; !ok {
			return fmt.Errorf("invalid role %q for sample %q. must be control, treatment, neutral, exclude", s.Role, s.SampleID)
		}
		hasControl = hasControl || s.IsControl()
		hasTreatment = hasTreatment || s.IsTreatment()
	}
	if !hasControl {
		return fmt.Errorf("at least one control sample is required")
	}
	if !hasTreatment {
		return fmt.Errorf("at least one treatment sample is required")
	}

	if c.Analysis.FDRThreshold <= 0 || c.Analysis.FDRThreshold >= 1 {
		return fmt.Errorf("fdr_threshold must be in (0,1), got %g", c.Analysis.FDRThreshold)
	}
	if c.Analysis.MinCountThreshold < 0 {
		return fmt.Errorf("min_count_threshold must be >= 0, got %d", c.Analysis.MinCountThreshold)
	}
	if c.Analysis.MinGuidesPerGene < 1 {
		return fmt.Errorf("min_guides_per_gene must be >= 1, got %d", c.Analysis.MinGuidesPerGene)
	}
	return nil
}

// ControlColumns returns the counts columns for control samples, in order.
func (c *ExperimentConfig) ControlColumns() []string {
	return c.columnsByRole(ControlRole)
}

// TreatmentColumns returns the counts columns for treatment samples, in order.
func (c *ExperimentConfig) TreatmentColumns() []string {
	return c.columnsByRole(TreatmentRole)
}

// SampleColumns returns all configured counts columns, in order.
func (c *ExperimentConfig) SampleColumns() []string {
	cols := make([]string, 0, len(c.Samples))
	for _, s := range c.Samples {
		cols = append(cols, s.ColumnName)
	}
	return cols
}

func (c *ExperimentConfig) columnsByRole(role SampleRole) []string {
	var cols []string
	for _, s := range c.Samples {
		if s.Role == role {
			cols = append(cols, s.ColumnName)
		}
	}
	return cols
}
