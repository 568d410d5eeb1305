package contract

import (
	"os"

	"github.com/fatih/color"

	"github.com/screenlab/guidepost/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // failed quality gates
	WarningColor  = color.New(color.FgYellow)              // actionable but non-fatal
	OKColor       = color.New(color.FgGreen)               // passing metrics
	InfoColor     = color.New(color.FgCyan)                // informational only
	HitColor      = color.New(color.FgMagenta, color.Bold) // significant genes
)

// GetSeverityLabel returns a colored severity label for console tables.
// The plain string value is used for CSV and JSON output instead.
func GetSeverityLabel(severity schema.QCSeverity) string {
	text := string(severity)
	switch severity {
	case schema.SeverityCritical:
		return CriticalColor.Sprint(text)
	case schema.SeverityWarning:
		return WarningColor.Sprint(text)
	case schema.SeverityInfo:
		return InfoColor.Sprint(text)
	default:
		return OKColor.Sprint(text)
	}
}

// GetSignificanceLabel returns a colored hit marker for console tables.
func GetSignificanceLabel(significant bool) string {
	if significant {
		return HitColor.Sprint("hit")
	}
	return "-"
}

// SelectOutputFile returns the file handle for result output. An empty path
// selects stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}
