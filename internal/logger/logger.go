package logger

import (
	"io"

	"github.com/fatih/color" // Import the fatih/color package for colored console output
)

// Colorized printf-style functions for each log level. They write to color.Output,
// which defaults to stdout and can be redirected with SetOutput.

// Info logs informational messages in green color.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warning messages in bright magenta color.
// Best-effort command failures that were ignored are reported through Warn.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red color.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It is reassigned by Init.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging.
// When enabled, Debug will print messages in cyan color.
// When disabled, Debug silently ignores debug logs.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// SetOutput redirects every level to w and returns the previous writer.
// Tests use it to capture what a run printed.
func SetOutput(w io.Writer) io.Writer {
	prev := color.Output
	color.Output = w
	return prev
}
