package core

import (
	"context"
	"fmt"

	"github.com/screenlab/guidepost/core/algo"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// Dispatcher owns the tiered scoring attempt sequence: external tool, then
// the accelerated native implementation, then the pure in-process fallback.
// Each demotion appends exactly one structured warning, so a caller can
// reconstruct the attempted backend sequence from the warning log.
type Dispatcher struct {
	External contract.ExternalScorer
	Native   contract.NativeScorer
}

// DispatchRequest carries everything one scoring pass needs.
type DispatchRequest struct {
	CountsPath string
	Config     *schema.ExperimentConfig
	OutputDir  string
	Records    []schema.GuideRecord

	UseExternalTool bool
	UseAccelerated  bool
}

// Score runs the backend attempt sequence and returns the adopted gene table
// together with the warnings accumulated along the way.
//
// A ContractViolation outcome from the native tier propagates instead of
// falling through: it indicates malformed input, not a backend problem, and
// the pure implementation would fail identically. Pure-tier errors are fatal.
func (d *Dispatcher) Score(ctx context.Context, req DispatchRequest) (*schema.GeneTable, []schema.PipelineWarning, error) {
	var warnings []schema.PipelineWarning

	if req.UseExternalTool {
		table, warning, err := d.tryExternal(ctx, req)
		if err != nil {
			return nil, warnings, err
		}
		if table != nil {
			return table, warnings, nil
		}
		warnings = append(warnings, warning)
	}

	if req.UseAccelerated {
		table, warning, err := d.tryNative(ctx, req)
		if err != nil {
			return nil, warnings, err
		}
		if table != nil {
			return table, warnings, nil
		}
		warnings = append(warnings, warning)
	}

	table, err := algo.RunRRA(req.Records, rraOptions(req.Config))
	if err != nil {
		return nil, warnings, err
	}
	return table, warnings, nil
}

// tryExternal attempts the external tool. A nil table with a nil error means
// the attempt was demoted; the returned warning describes why.
func (d *Dispatcher) tryExternal(ctx context.Context, req DispatchRequest) (*schema.GeneTable, schema.PipelineWarning, error) {
	if d.External == nil || !d.External.IsAvailable() {
		return nil, schema.PipelineWarning{
			Code:    schema.WarnExternalToolUnavailable,
			Message: "external scoring tool not found; falling back",
		}, nil
	}

	table, outcome := d.External.Score(ctx, req.CountsPath, req.Config, req.OutputDir)
	switch outcome.Kind {
	case contract.OutcomeOK:
		return table, schema.PipelineWarning{}, nil
	case contract.OutcomeUnavailable:
		return nil, schema.PipelineWarning{
			Code:    schema.WarnExternalToolUnavailable,
			Message: "external scoring tool unavailable; falling back",
			Details: outcome.Detail,
		}, nil
	case contract.OutcomeContractViolation:
		// The tool rejected its own invocation contract (e.g. missing counts
		// file); the same input would break every backend.
		return nil, schema.PipelineWarning{}, outcome.Err
	default:
		return nil, schema.PipelineWarning{
			Code:    schema.WarnExternalToolFailed,
			Message: "external scoring tool failed; falling back",
			Details: outcome.Detail,
		}, nil
	}
}

// tryNative attempts the accelerated native implementation.
func (d *Dispatcher) tryNative(ctx context.Context, req DispatchRequest) (*schema.GeneTable, schema.PipelineWarning, error) {
	if d.Native == nil || !d.Native.IsAvailable() {
		return nil, schema.PipelineWarning{
			Code:    schema.WarnNativeUnavailable,
			Message: "accelerated scorer unavailable; using pure fallback",
		}, nil
	}

	opts := rraOptions(req.Config)
	table, outcome := d.Native.Score(ctx, req.Records, opts.MinGuides, opts.HigherIsBetter)
	switch outcome.Kind {
	case contract.OutcomeOK:
		return table, schema.PipelineWarning{}, nil
	case contract.OutcomeUnavailable:
		return nil, schema.PipelineWarning{
			Code:    schema.WarnNativeUnavailable,
			Message: "accelerated scorer unavailable; using pure fallback",
			Details: outcome.Detail,
		}, nil
	case contract.OutcomeContractViolation:
		return nil, schema.PipelineWarning{}, outcome.Err
	default:
		return nil, schema.PipelineWarning{
			Code:    schema.WarnNativeFailed,
			Message: fmt.Sprintf("accelerated scorer failed: %s", outcome.Detail),
			Details: outcome.Detail,
		}, nil
	}
}

func rraOptions(cfg *schema.ExperimentConfig) algo.RRAOptions {
	opts := algo.DefaultRRAOptions()
	if cfg != nil && cfg.Analysis.MinGuidesPerGene > 0 {
		opts.MinGuides = cfg.Analysis.MinGuidesPerGene
	}
	return opts
}
