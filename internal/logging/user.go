package logging

import (
	"fmt"
	"io"
	"os"
)

// Destinations for user-facing output. Tests swap these out.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// User-facing output functions with status prefixes.
// These are for CLI output and are kept apart from
// the structured debug log.

// UserInfo prints an info message to stdout.
func UserInfo(format string, args ...any) {
	fmt.Fprintf(Stdout, "ℹ "+format+"\n", args...)
}

// UserSuccess prints a success message to stdout.
func UserSuccess(format string, args ...any) {
	fmt.Fprintf(Stdout, "✓ "+format+"\n", args...)
}

// UserWarning prints a warning message to stderr.
func UserWarning(format string, args ...any) {
	fmt.Fprintf(Stderr, "⚠ "+format+"\n", args...)
}

// UserError prints an error message to stderr.
func UserError(format string, args ...any) {
	fmt.Fprintf(Stderr, "✗ "+format+"\n", args...)
}
