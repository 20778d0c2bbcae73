// Package runlog provides the run-scoped error log shared by every stage of
// a publish run. Upload workers, the registry reconciler, and the escalator
// all append to it concurrently; the orchestrator reads it once at the end
// of the run to decide the overall result and whether to file an issue.
package runlog

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Log is an append-only, concurrency-safe error log scoped to one run.
// Every append is echoed to the structured logger at error level, so the
// run log and the process log never disagree about what went wrong.
type Log struct {
	log zerolog.Logger

	mu      sync.Mutex
	entries []string
}

// New creates an empty run log that echoes entries to the given logger.
func New(log zerolog.Logger) *Log {
	return &Log{log: log}
}

// Errorf appends a formatted error message to the log.
func (l *Log) Errorf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Append records one error message.
func (l *Log) Append(msg string) {
	l.log.Error().Msg(msg)

	l.mu.Lock()
	l.entries = append(l.entries, msg)
	l.mu.Unlock()
}

// HasErrors reports whether anything was logged during the run.
func (l *Log) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries) > 0
}

// Len returns the number of logged errors.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of all logged errors in append order.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}
