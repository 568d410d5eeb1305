// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/jobs"
)

// NewMCPServer initializes and configures the Guidepost MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr *jobs.Manager, store contract.RunStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Guidepost Screen Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		store:   store,
	}

	// --- 1. Tool: run_screen_analysis ---
	s.AddTool(mcp.NewTool("run_screen_analysis",
		mcp.WithDescription("Run a pooled CRISPR screen analysis: normalization, gene scoring and QC."),
		mcp.WithString("counts", mcp.Description("Path to the guide counts file (CSV or TSV)."), mcp.Required()),
		mcp.WithString("library", mcp.Description("Path to the guide library file."), mcp.Required()),
		mcp.WithString("metadata", mcp.Description("Path to the experiment metadata JSON."), mcp.Required()),
		mcp.WithBoolean("use_mageck", mcp.Description("Try the external MAGeCK tool first. Defaults to false.")),
		mcp.WithBoolean("use_accelerated", mcp.Description("Try the accelerated in-process scorer. Defaults to false.")),
		mcp.WithNumber("fdr_threshold", mcp.Description("Significance threshold in (0,1). Defaults to the metadata value.")),
		mcp.WithBoolean("wait", mcp.Description("Block until the analysis finishes and return the result summary.")),
	), h.handleRunScreenAnalysis)

	// --- 2. Tool: get_job_status ---
	s.AddTool(mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the lifecycle status of a background analysis job."),
		mcp.WithString("job_id", mcp.Description("The job ID returned by run_screen_analysis."), mcp.Required()),
	), h.handleGetJobStatus)

	// --- 3. Tool: list_jobs ---
	s.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List retained background analysis jobs, newest first."),
	), h.handleListJobs)

	// --- 4. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded analysis runs from the run-history store."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return.")),
	), h.handleListRuns)

	return s
}

// StartMCPServer starts the Guidepost MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr *jobs.Manager, store contract.RunStore) error {
	s := NewMCPServer(baseCfg, mgr, store)
	return server.ServeStdio(s)
}
