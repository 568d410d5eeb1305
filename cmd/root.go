package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/internal/runstore"
	"github.com/screenlab/guidepost/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file,
// env, flags). Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// runStore is the run-history store shared by all commands.
var runStore contract.RunStore

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "guidepost",
	Short:              "Analyze pooled CRISPR screen counts to find essential genes.",
	Long:               `Guidepost turns raw guide counts into ranked gene-level hit lists with quality control, fold-change normalization and robust rank aggregation.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".guidepost") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("GUIDEPOST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("history-limit", contract.DefaultHistoryLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("output-root", "artifacts")
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("mageck-binary", contract.DefaultMageckPath)
	viper.SetDefault("color", "yes")
	viper.SetDefault("min-count", int64(-1))
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing. This populates the global
	// 'cfg' from 'input' and resolves the force-pure env override once.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Open the run-history store. Tracking failures are never fatal.
	store, err := runstore.NewStore(cfg.StoreBackend, cfg.StoreDBConnect)
	if err != nil {
		contract.LogWarn("run tracking disabled", err)
		store, _ = runstore.NewStore(schema.NoneBackend, "")
	}
	runStore = store

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if runStore != nil {
			_ = runStore.Close()
		}
	}()
	return rootCmd.Execute()
}
