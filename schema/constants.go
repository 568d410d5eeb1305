package schema

// Custom string types for type safety.
type (
	// ScreenType represents the direction of a pooled screen.
	ScreenType string

	// SampleRole represents the functional role of a sample column.
	SampleRole string

	// QCSeverity represents the severity classification of a QC metric.
	QCSeverity string

	// WarningCode identifies a recoverable pipeline condition.
	WarningCode string

	// ScoringBackend identifies which scoring implementation produced a gene table.
	ScoringBackend string

	// JobStatus represents the lifecycle state of a background job.
	JobStatus string

	// OutputMode represents the format of terminal output.
	OutputMode string

	// StoreBackend represents the database backend for run-history storage.
	StoreBackend string
)

// All screen types supported.
const (
	DropoutScreen    ScreenType = "dropout" // default
	EnrichmentScreen ScreenType = "enrichment"
)

// All sample roles supported.
const (
	ControlRole   SampleRole = "control"
	TreatmentRole SampleRole = "treatment"
	NeutralRole   SampleRole = "neutral"
	ExcludeRole   SampleRole = "exclude"
)

// QC severity levels, ordered from benign to fatal.
const (
	SeverityOK       QCSeverity = "ok"
	SeverityInfo     QCSeverity = "info"
	SeverityWarning  QCSeverity = "warning"
	SeverityCritical QCSeverity = "critical"
)

// Warning codes emitted by the backend dispatcher and collaborators.
const (
	WarnExternalToolUnavailable WarningCode = "external_tool_unavailable"
	WarnExternalToolFailed      WarningCode = "external_tool_failed"
	WarnNativeUnavailable       WarningCode = "native_unavailable"
	WarnNativeFailed            WarningCode = "native_failed"
	WarnEnrichmentUnavailable   WarningCode = "enrichment_unavailable"
	WarnEnrichmentFailed        WarningCode = "enrichment_failed"
	WarnAnnotationPartial       WarningCode = "annotation_partial"
	WarnArtifactWriteFailed     WarningCode = "artifact_write_failed"
)

// All scoring backends, in dispatch order.
const (
	ExternalBackend    ScoringBackend = "mageck"
	AcceleratedBackend ScoringBackend = "accelerated"
	PureBackend        ScoringBackend = "pure"
)

// All job statuses supported.
const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobFinished JobStatus = "finished"
	JobFailed   JobStatus = "failed"
	JobUnknown  JobStatus = "unknown"
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	CSVOut  OutputMode = "csv"
	JSONOut OutputMode = "json"
)

// All run-store backends supported.
const (
	SQLiteBackend     StoreBackend = "sqlite" // default
	PostgreSQLBackend StoreBackend = "postgresql"
	MySQLBackend      StoreBackend = "mysql"
	NoneBackend       StoreBackend = "none"
)

// ValidScreenTypes lists all valid screen types.
var ValidScreenTypes = map[ScreenType]struct{}{
	DropoutScreen:    {},
	EnrichmentScreen: {},
}

// ValidSampleRoles lists all valid sample roles.
var ValidSampleRoles = map[SampleRole]struct{}{
	ControlRole:   {},
	TreatmentRole: {},
	NeutralRole:   {},
	ExcludeRole:   {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	CSVOut:  {},
	JSONOut: {},
}

// ValidStoreBackends lists all valid run-store backends.
var ValidStoreBackends = map[StoreBackend]struct{}{
	SQLiteBackend:     {},
	PostgreSQLBackend: {},
	MySQLBackend:      {},
	NoneBackend:       {},
}

// severityRank orders severities for gate checks and display.
var severityRank = map[QCSeverity]int{
	SeverityOK:       0,
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityCritical: 3,
}

// SeverityAtLeast reports whether severity s is at least as severe as floor.
func SeverityAtLeast(s, floor QCSeverity) bool {
	return severityRank[s] >= severityRank[floor]
}
