// Package cmd defines the command-line interface for guidepost.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(qcCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("counts", "k", "", "Path to the guide counts file (CSV or TSV)")
	rootCmd.PersistentFlags().String("library", "", "Path to the guide library file")
	rootCmd.PersistentFlags().StringP("metadata", "m", "", "Path to the experiment metadata JSON")
	rootCmd.PersistentFlags().String("output-root", "artifacts", "Directory that receives per-run artifact folders")
	rootCmd.PersistentFlags().Bool("use-mageck", false, "Try the external MAGeCK tool before in-process scoring")
	rootCmd.PersistentFlags().Bool("use-accelerated", false, "Try the accelerated in-process scorer before the pure fallback")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("history-limit", contract.DefaultHistoryLimit, "Number of background jobs to retain")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of genes to display")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Run-history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("mageck-binary", contract.DefaultMageckPath, "Name or path of the external MAGeCK binary")
	rootCmd.PersistentFlags().String("mageck-timeout", "", "Timeout for external tool invocations (e.g., 10m)")
	rootCmd.PersistentFlags().String("annotation-cache", "", "Directory for cached gene annotations")
	rootCmd.PersistentFlags().String("pathway-file", "", "Path to a GMT pathway gene-set file")
	rootCmd.PersistentFlags().Float64("fdr-threshold", 0, "Significance threshold override in (0,1); 0 keeps the metadata value")
	rootCmd.PersistentFlags().Int64("min-count", -1, "Guide detection threshold override; -1 keeps the metadata value")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Migration target version (-1 latest, 0 rollback all)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding migrate flags", err)
	}
}
