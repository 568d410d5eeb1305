package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/screenlab/guidepost/core"
	"github.com/screenlab/guidepost/internal/accel"
	"github.com/screenlab/guidepost/internal/annotate"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/enrich"
	"github.com/screenlab/guidepost/internal/jobs"
	"github.com/screenlab/guidepost/internal/mageck"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     *jobs.Manager
	store   contract.RunStore
}

func (h *toolHandler) handleRunScreenAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.CountsPath = request.GetString("counts", "")
	cfg.LibraryPath = request.GetString("library", "")
	cfg.MetadataPath = request.GetString("metadata", "")
	if cfg.CountsPath == "" || cfg.LibraryPath == "" || cfg.MetadataPath == "" {
		return mcp.NewToolResultError("counts, library and metadata paths are all required"), nil
	}
	if !cfg.ForcedPure {
		cfg.UseExternalTool = request.GetBool("use_mageck", cfg.UseExternalTool)
		cfg.UseAccelerated = request.GetBool("use_accelerated", cfg.UseAccelerated)
	}
	if fdr := request.GetFloat("fdr_threshold", 0); fdr > 0 && fdr < 1 {
		cfg.FDRThreshold = fdr
	}

	pipeline := &core.Pipeline{
		Cfg:         cfg,
		External:    mageck.NewClient(cfg.MageckBinary, cfg.MageckTimeout),
		Native:      accel.NewScorer(cfg.Workers),
		Enrichment:  enrich.NewBackend(cfg.PathwayFile),
		Annotations: annotate.NewFetcher("", cfg.AnnotationCache),
		Store:       h.store,
	}

	jobID, coalesced, err := h.mgr.Submit(pipeline.Fingerprint(), pipeline.Run, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to submit analysis: %v", err)), nil
	}

	if request.GetBool("wait", false) {
		result, err := h.mgr.Result(ctx, jobID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		payload := map[string]any{
			"job_id":   jobID,
			"summary":  result.Summary,
			"settings": result.Settings,
			"top_hits": result.TopHits(cfg.ResultLimit),
			"warnings": result.Warnings,
		}
		jsonData, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(jsonData)), nil
	}

	snapshot, err := h.mgr.Status(jobID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("job submitted but not found: %v", err)), nil
	}
	payload := map[string]any{
		"job":       snapshot,
		"coalesced": coalesced,
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetJobStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id is required"), nil
	}

	snapshot, err := h.mgr.Status(jobID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err)), nil
	}
	jsonData, _ := json.MarshalIndent(snapshot, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListJobs(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, _ := json.MarshalIndent(h.mgr.List(), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListRuns(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", contract.DefaultResultLimit)
	runs, err := h.store.ListRuns(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}
	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
