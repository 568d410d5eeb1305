package contract

import (
	"errors"
	"fmt"

	"github.com/screenlab/guidepost/schema"
)

// DataContractError marks input that violates the documented data contract:
// malformed files, schema mismatches, missing required columns. Always fatal,
// never retried, never demoted to a warning.
type DataContractError struct {
	Message string
	Err     error
}

// NewDataContractError builds a DataContractError from a format string.
func NewDataContractError(format string, args ...any) *DataContractError {
	return &DataContractError{Message: fmt.Sprintf(format, args...)}
}

// WrapDataContractError attaches a cause to a DataContractError.
func WrapDataContractError(err error, format string, args ...any) *DataContractError {
	return &DataContractError{Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *DataContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DataContractError) Unwrap() error { return e.Err }

// IsDataContractError reports whether err is or wraps a DataContractError.
func IsDataContractError(err error) bool {
	var target *DataContractError
	return errors.As(err, &target)
}

// QualityGateError aborts a pipeline run when any QC metric is critical.
// It carries the offending metrics for user remediation.
type QualityGateError struct {
	Metrics []schema.QCMetric
}

func (e *QualityGateError) Error() string {
	names := make([]string, 0, len(e.Metrics))
	for _, m := range e.Metrics {
		names = append(names, m.Name)
	}
	return fmt.Sprintf("quality control gate failed: %d critical metric(s): %v", len(e.Metrics), names)
}

// IsQualityGateError reports whether err is or wraps a QualityGateError.
func IsQualityGateError(err error) bool {
	var target *QualityGateError
	return errors.As(err, &target)
}

// ExecutionError marks a failed external process invocation, including
// timeouts. The dispatcher demotes it to a warning and falls through.
type ExecutionError struct {
	Tool    string
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s execution failed: %s: %v", e.Tool, e.Message, e.Err)
	}
	return fmt.Sprintf("%s execution failed: %s", e.Tool, e.Message)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// JobNotFoundError signals a job identifier that was evicted or never seen.
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job %q not found", e.JobID)
}

// IsJobNotFound reports whether err is or wraps a JobNotFoundError.
func IsJobNotFound(err error) bool {
	var target *JobNotFoundError
	return errors.As(err, &target)
}
