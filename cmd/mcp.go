package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/jobs"
	"github.com/screenlab/guidepost/internal/mcp"
	"github.com/screenlab/guidepost/schema"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Guidepost MCP server",
	Long:  `Launch an MCP server that allows AI agents to submit screen analyses as background jobs and query their status via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Suppress the normal header logs when running in MCP mode
		// to avoid polluting stdio which is used for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		mgr := jobs.NewManager(cfg.Workers, cfg.HistoryLimit)
		defer mgr.Close()
		// Completion logs go to stderr, so they stay clear of the
		// stdio protocol stream.
		mgr.OnCompletion(func(snap schema.JobSnapshot) {
			contract.LogInfo(fmt.Sprintf("job %s finished with status %s", snap.JobID, snap.Status))
		})
		return mcp.StartMCPServer(rootCtx, cfg, mgr, runStore)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
