package publish

import (
	"fmt"
	"io"
	"sort"

	"github.com/sofmeright/feedfreight/src/output"
)

// Report collects per-artifact outcomes across the whole run for terminal
// rendering.
type Report struct {
	entries map[string]Outcome
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{entries: make(map[string]Outcome)}
}

// Merge folds one batch's outcomes into the report.
func (r *Report) Merge(outcomes map[string]Outcome) {
	for k, v := range outcomes {
		r.entries[k] = v
	}
}

// Counts returns totals by outcome kind.
func (r *Report) Counts() (created, skipped, failed int) {
	for _, o := range r.entries {
		switch o.Kind {
		case OutcomeCreated:
			created++
		case OutcomeSkippedIdentical:
			skipped++
		default:
			failed++
		}
	}
	return
}

// Render writes the per-artifact outcomes and a summary line.
func (r *Report) Render(w io.Writer, color bool) {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		o := r.entries[k]
		tag := output.Colorize("OK  ", output.ColorGreen, color)
		switch o.Kind {
		case OutcomeSkippedIdentical:
			tag = output.Colorize("SKIP", output.ColorYellow, color)
		case OutcomeFailed:
			tag = output.Colorize("FAIL", output.ColorRed, color)
		}
		fmt.Fprintf(w, "  %s %s", tag, k)
		if o.Kind == OutcomeFailed {
			fmt.Fprintf(w, "  %s", o.String())
		}
		fmt.Fprintln(w)
	}

	created, skipped, failed := r.Counts()
	summary := fmt.Sprintf("%d published, %d skipped, %d failed", created, skipped, failed)
	if failed > 0 {
		summary = output.Colorize(summary, output.ColorRed, color)
	} else {
		summary = output.Colorize(summary, output.ColorBold, color)
	}
	fmt.Fprintf(w, "\n%s\n", summary)
}
