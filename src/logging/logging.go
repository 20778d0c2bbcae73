// Package logging configures the process-wide zerolog logger and keeps
// credentials out of log output.
package logging

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// RedactedValue replaces sensitive material in logged strings.
const RedactedValue = "[REDACTED]"

// credentialPatterns match token formats that may leak through URLs or
// pasted configuration: forge personal access tokens, bearer headers, and
// SAS-style query-string signatures.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`glpat-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)(sig|sv|token|access_token)=[a-zA-Z0-9%+/=_-]{16,}`),
}

// Redact strips credential material from a string before it is logged.
// Used for URLs and config echoes that may embed tokens.
func Redact(s string) string {
	for _, re := range credentialPatterns {
		s = re.ReplaceAllString(s, RedactedValue)
	}
	return s
}

// New builds the root logger writing human-readable output to stderr.
// Verbose enables debug-level events.
func New(verbose bool) zerolog.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter is New with an explicit destination, for tests.
func NewWithWriter(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}
