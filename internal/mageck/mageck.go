// Package mageck runs the external MAGeCK tool and normalizes its gene
// summary output to the canonical gene table.
package mageck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// Client invokes a locally installed mageck binary.
type Client struct {
	Binary  string
	Timeout time.Duration
}

var _ contract.ExternalScorer = &Client{} // Compile-time check

// NewClient creates a client for the given binary path. An empty path
// selects the default binary name resolved from PATH.
func NewClient(binary string, timeout time.Duration) *Client {
	if binary == "" {
		binary = contract.DefaultMageckPath
	}
	if timeout <= 0 {
		timeout = contract.DefaultToolTimeout
	}
	return &Client{Binary: binary, Timeout: timeout}
}

// IsAvailable reports whether the mageck binary resolves on PATH.
func (c *Client) IsAvailable() bool {
	_, err := exec.LookPath(c.Binary)
	return err == nil
}

// Score runs `mageck test` against the raw counts file and parses the
// resulting gene summary into the canonical table.
func (c *Client) Score(ctx context.Context, countsPath string, cfg *schema.ExperimentConfig, outputDir string) (*schema.GeneTable, contract.BackendOutcome) {
	if countsPath == "" {
		err := contract.NewDataContractError("external scorer needs the raw counts file path")
		return nil, contract.OutcomeFromError(err)
	}
	controls := cfg.ControlColumns()
	treatments := cfg.TreatmentColumns()
	if len(controls) == 0 || len(treatments) == 0 {
		err := contract.NewDataContractError("external scorer needs at least one control and one treatment column")
		return nil, contract.OutcomeFromError(err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	prefix := filepath.Join(outputDir, "mageck")
	args := []string{
		"test",
		"-k", countsPath,
		"-t", strings.Join(treatments, ","),
		"-c", strings.Join(controls, ","),
		"-n", prefix,
	}
	cmd := exec.CommandContext(runCtx, c.Binary, args...)
	if _, err := cmd.Output(); err != nil {
		return nil, contract.OutcomeFromError(c.describeFailure(runCtx, err))
	}

	table, err := ParseGeneSummary(prefix+".gene_summary.txt", cfg.ScreenType)
	if err != nil {
		return nil, contract.OutcomeFromError(err)
	}
	return table, contract.OutcomeSuccess()
}

// describeFailure converts an exec error into an ExecutionError carrying the
// tool's stderr tail.
func (c *Client) describeFailure(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &contract.ExecutionError{
			Tool:    c.Binary,
			Message: fmt.Sprintf("timed out after %v", c.Timeout),
			Err:     ctx.Err(),
		}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &contract.ExecutionError{
			Tool:    c.Binary,
			Message: strings.TrimSpace(string(exitErr.Stderr)),
			Err:     err,
		}
	}
	return &contract.ExecutionError{Tool: c.Binary, Message: "invocation failed", Err: err}
}
