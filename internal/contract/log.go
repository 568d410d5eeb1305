package contract

import (
	"fmt"
	"os"
)

// LogWarn logs a warning with an optional cause to stderr.
func LogWarn(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  %s: %v\n", msg, err)
		return
	}
	fmt.Fprintf(os.Stderr, "⚠️  %s\n", msg)
}

// LogInfo logs an informational message to stderr, keeping stdout clean for
// tabular output.
func LogInfo(msg string) {
	fmt.Fprintf(os.Stderr, "%s\n", msg)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(1)
}
