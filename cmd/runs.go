package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/outwriter"
	"github.com/screenlab/guidepost/internal/runstore"
)

// runsCmd groups run-history subcommands.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded analysis runs.",
	Long:  `Inspect the run-history store: list past analyses, check store health and apply schema migrations.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// runsListCmd lists recorded runs.
var runsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List recorded analysis runs, newest first.",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runs, err := runStore.ListRuns(cfg.ResultLimit)
		if err != nil {
			contract.LogFatal("Cannot list runs", err)
		}
		ow := outwriter.NewOutWriter()
		if err := ow.WriteRuns(runs, cfg); err != nil {
			contract.LogFatal("Cannot write run output", err)
		}
	},
}

// runsStatusCmd shows store health.
var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show run-store backend and connection health.",
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		status, err := runStore.GetStatus()
		if err != nil {
			contract.LogFatal("Cannot get store status", err)
		}
		cmd.Printf("Backend:   %s\n", status.Backend)
		cmd.Printf("Connected: %t\n", status.Connected)
		cmd.Printf("Runs:      %d\n", status.TotalRuns)
		if status.Location != "" {
			cmd.Printf("Location:  %s\n", status.Location)
		}
	},
}

// runsMigrateCmd applies run-store schema migrations.
var runsMigrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Apply run-store schema migrations.",
	Long:    `Apply versioned schema migrations to the run-history database. Use --target-version to pin a version, 0 to roll back everything, or the default -1 for latest.`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := runstore.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, target); err != nil {
			contract.LogFatal("Cannot migrate run store", err)
		}
	},
}
