package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/screenlab/guidepost/schema"
)

// Default values for configuration.
const (
	DefaultWorkers      = 2
	DefaultHistoryLimit = 50
	DefaultResultLimit  = 25
	MaxResultLimit      = 1000
	DefaultPrecision    = 3
	DefaultMageckPath   = "mageck"
	DefaultToolTimeout  = 30 * time.Minute
)

// ForcePureEnvVar forces the pure in-process scorer regardless of request
// flags. It is resolved exactly once, at settings-resolution time.
const ForcePureEnvVar = "GUIDEPOST_FORCE_PURE"

// Config holds the final, validated runtime configuration for a run.
type Config struct {
	CountsPath   string
	LibraryPath  string
	MetadataPath string
	OutputRoot   string

	UseExternalTool bool
	UseAccelerated  bool
	ForcedPure      bool // resolved from ForcePureEnvVar once

	Workers      int
	HistoryLimit int
	ResultLimit  int
	Precision    int

	Output     schema.OutputMode
	OutputFile string
	UseColors  bool
	Width      int // terminal width override (0 = auto-detect)

	StoreBackend   schema.StoreBackend
	StoreDBConnect string // prefer the env var, this is plaintext

	MageckBinary  string
	MageckTimeout time.Duration

	AnnotationCache string
	PathwayFile     string

	// Optional overrides applied on top of the experiment metadata.
	FDRThreshold float64 // 0 means keep the metadata value
	MinCount     int64   // -1 means keep the metadata value
}

// Clone returns an independent copy of the config. MCP tool handlers clone
// the base config before applying per-request overrides.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config
// file). Viper unmarshals into this struct.
type ConfigRawInput struct {
	Counts         string  `mapstructure:"counts"`
	Library        string  `mapstructure:"library"`
	Metadata       string  `mapstructure:"metadata"`
	OutputRoot     string  `mapstructure:"output-root"`
	UseMageck      bool    `mapstructure:"use-mageck"`
	UseAccelerated bool    `mapstructure:"use-accelerated"`
	Workers        int     `mapstructure:"workers"`
	HistoryLimit   int     `mapstructure:"history-limit"`
	Limit          int     `mapstructure:"limit"`
	Precision      int     `mapstructure:"precision"`
	Output         string  `mapstructure:"output"`
	OutputFile     string  `mapstructure:"output-file"`
	Color          string  `mapstructure:"color"`
	Width          int     `mapstructure:"width"`
	StoreBackend   string  `mapstructure:"store-backend"`
	StoreDBConnect string  `mapstructure:"store-db-connect"`
	MageckBinary   string  `mapstructure:"mageck-binary"`
	MageckTimeout  string  `mapstructure:"mageck-timeout"`
	AnnotationDir  string  `mapstructure:"annotation-cache"`
	PathwayFile    string  `mapstructure:"pathway-file"`
	FDRThreshold   float64 `mapstructure:"fdr-threshold"`
	MinCount       int64   `mapstructure:"min-count"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and populates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateStoreConfig(cfg, input); err != nil {
		return err
	}
	resolveBackendFlags(cfg, input)
	return nil
}

// validateSimpleInputs processes and validates all non-store fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.CountsPath = input.Counts
	cfg.LibraryPath = input.Library
	cfg.MetadataPath = input.Metadata
	cfg.OutputFile = input.OutputFile
	cfg.FDRThreshold = input.FDRThreshold
	cfg.MinCount = input.MinCount
	cfg.AnnotationCache = input.AnnotationDir
	cfg.PathwayFile = input.PathwayFile
	cfg.Width = input.Width

	cfg.OutputRoot = input.OutputRoot
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = "artifacts"
	}

	// --- Workers / HistoryLimit Validation ---
	cfg.Workers = input.Workers
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.HistoryLimit = input.HistoryLimit
	if cfg.HistoryLimit <= 0 {
		return fmt.Errorf("history-limit must be greater than 0 (received %d)", input.HistoryLimit)
	}

	// --- ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 1 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format %q. must be text, csv, json", input.Output)
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- Threshold overrides ---
	if cfg.FDRThreshold != 0 && (cfg.FDRThreshold <= 0 || cfg.FDRThreshold >= 1) {
		return fmt.Errorf("fdr-threshold must be in (0,1) (received %g)", cfg.FDRThreshold)
	}

	// --- External tool settings ---
	cfg.MageckBinary = input.MageckBinary
	if cfg.MageckBinary == "" {
		cfg.MageckBinary = DefaultMageckPath
	}
	cfg.MageckTimeout = DefaultToolTimeout
	if input.MageckTimeout != "" {
		d, err := time.ParseDuration(input.MageckTimeout)
		if err != nil {
			return fmt.Errorf("invalid mageck-timeout %q: %w", input.MageckTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("mageck-timeout must be positive (received %s)", d)
		}
		cfg.MageckTimeout = d
	}

	return nil
}

// validateStoreConfig validates the run-store backend configuration.
func validateStoreConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.StoreBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidStoreBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend %q. must be sqlite, postgresql, mysql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateStoreConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// ValidateStoreConnectionString validates the format of database connection
// strings for the MySQL and PostgreSQL backends.
func ValidateStoreConnectionString(backend schema.StoreBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// resolveBackendFlags applies the backend request flags and the force-pure
// escape hatch. The env var is read here, once, and never re-evaluated
// mid-run.
func resolveBackendFlags(cfg *Config, input *ConfigRawInput) {
	cfg.UseExternalTool = input.UseMageck
	cfg.UseAccelerated = input.UseAccelerated

	if forced, err := ParseBoolString(os.Getenv(ForcePureEnvVar)); err == nil && forced {
		cfg.ForcedPure = true
		cfg.UseExternalTool = false
		cfg.UseAccelerated = false
	}
}

// ParseBoolString parses common yes/no style boolean strings. An empty string
// is false.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no", "n", "off", "false", "0":
		return false, nil
	case "yes", "y", "on", "true", "1":
		return true, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected yes/no or true/false, got %q", s)
	}
	return v, nil
}

// GetRunDBFilePath returns the default SQLite DB file path for run history.
func GetRunDBFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guidepost_runs.db"
	}
	return filepath.Join(home, ".guidepost", "runs.db")
}
