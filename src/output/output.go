// Package output provides terminal color and CI-environment helpers for
// publish report rendering.
package output

import (
	"os"
)

// Colors for terminal output.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// Colorize wraps text in an ANSI color when enabled is true.
func Colorize(text, color string, enabled bool) string {
	if !enabled {
		return text
	}
	return color + text + ColorReset
}

// IsCI reports whether we are running inside a CI pipeline.
func IsCI() bool {
	return os.Getenv("CI") == "true"
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// UseColor returns true if colored output should be used.
// CI pipelines render ANSI colors, so color stays on there.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal() || IsCI()
}
