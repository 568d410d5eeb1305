// Package contract provides interfaces, configuration and shared utilities
// for guidepost's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/screenlab/guidepost/schema"
)

// OutcomeKind tags the result of one backend scoring attempt.
type OutcomeKind string

// All backend outcome kinds.
const (
	OutcomeOK                OutcomeKind = "ok"
	OutcomeUnavailable       OutcomeKind = "unavailable"
	OutcomeExecutionFailed   OutcomeKind = "execution_failed"
	OutcomeContractViolation OutcomeKind = "contract_violation"
)

// BackendOutcome is the tagged result of a backend attempt. The dispatcher
// matches on Kind exhaustively instead of sniffing exception hierarchies:
// Unavailable and ExecutionFailed demote to warnings and fall through,
// ContractViolation propagates because a cleaner backend would hit the same
// bad input.
type BackendOutcome struct {
	Kind   OutcomeKind
	Detail string
	Err    error
}

// Succeeded reports whether the attempt produced a usable gene table.
func (o BackendOutcome) Succeeded() bool { return o.Kind == OutcomeOK }

// OutcomeSuccess marks a successful backend attempt.
func OutcomeSuccess() BackendOutcome {
	return BackendOutcome{Kind: OutcomeOK}
}

// OutcomeFromError classifies an error into a backend outcome.
func OutcomeFromError(err error) BackendOutcome {
	if IsDataContractError(err) {
		return BackendOutcome{Kind: OutcomeContractViolation, Detail: err.Error(), Err: err}
	}
	return BackendOutcome{Kind: OutcomeExecutionFailed, Detail: err.Error(), Err: err}
}

// OutcomeNotAvailable marks a backend that is not installed or disabled.
func OutcomeNotAvailable(detail string) BackendOutcome {
	return BackendOutcome{Kind: OutcomeUnavailable, Detail: detail}
}

// ExternalScorer runs an out-of-process scoring tool against the raw counts
// file and returns its gene table normalized to the canonical schema.
type ExternalScorer interface {
	// IsAvailable reports whether the external binary can be invoked.
	IsAvailable() bool

	// Score invokes the tool and parses its gene summary.
	Score(ctx context.Context, countsPath string, cfg *schema.ExperimentConfig, outputDir string) (*schema.GeneTable, BackendOutcome)
}

// NativeScorer is an accelerated in-process scoring implementation with the
// same semantics as the pure fallback.
type NativeScorer interface {
	// IsAvailable reports whether the accelerated path can run.
	IsAvailable() bool

	// Score aggregates guide records into a gene table.
	Score(ctx context.Context, records []schema.GuideRecord, minGuides int, higherIsBetter bool) (*schema.GeneTable, BackendOutcome)
}

// EnrichmentBackend computes pathway over-representation for a hit list.
type EnrichmentBackend interface {
	// IsAvailable reports whether the backend can run.
	IsAvailable() bool

	// Run tests the hit genes against the backend's pathway sets given the
	// full gene universe.
	Run(ctx context.Context, hits []string, universe []string, cutoff float64) ([]schema.PathwayResult, BackendOutcome)
}

// AnnotationFetcher retrieves gene annotations from an external source.
// Partial failures degrade to warning strings, never to an error.
type AnnotationFetcher interface {
	Fetch(ctx context.Context, genes []string) (map[string]schema.GeneAnnotation, []string, error)
}

// RunStore records pipeline run history. Store failures are logged and never
// abort a run.
type RunStore interface {
	// BeginRun creates a run record and returns its unique ID.
	BeginRun(startTime time.Time, params map[string]any) (int64, error)

	// EndRun finalizes a run record with completion data.
	EndRun(runID int64, endTime time.Time, totalGenes, significantGenes int, backend schema.ScoringBackend) error

	// RecordWarning appends one pipeline warning to a run.
	RecordWarning(runID int64, warning schema.PipelineWarning) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]schema.RunRecord, error)

	// GetStatus returns store health information.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
