// Package escalate files a tracking issue when a publish run logged any
// errors. Escalation is best-effort: its own failures are logged and
// swallowed, so an unreachable issue tracker never masks the original
// errors.
package escalate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sofmeright/feedfreight/src/forge"
	"github.com/sofmeright/feedfreight/src/manifest"
	"github.com/sofmeright/feedfreight/src/runlog"
)

// authorFallback is used whenever the commit author cannot be resolved.
const authorFallback = "author could not be determined"

// ReleaseContext carries the human-facing strings embedded in the issue.
type ReleaseContext struct {
	Description        string // release description, e.g. ".NET-adjacent nightly 2026-08-29"
	PipelineURL        string // link to the publishing pipeline definition
	TriggeringBuildURL string // link to the run whose logs hold the errors
}

// Escalator files one tracking issue per failed run.
type Escalator struct {
	Source      forge.Forge // commit-author lookup override; built from the repo URL when nil
	SourceToken string      // credential for the lazily built source client
	Tracker     forge.Forge // issue creation against the configured tracking repo
	Notify      []string    // handles to cc on the issue
	Context     ReleaseContext
	Log         zerolog.Logger
}

// Escalate files a tracking issue summarizing the run's errors. It is a
// no-op when the run log is empty, and it never returns an error: every
// failure inside escalation is appended to the run log and logged, leaving
// the run's already-failed result untouched.
func (e *Escalator) Escalate(ctx context.Context, id manifest.BuildIdentity, errs *runlog.Log) {
	if !errs.HasErrors() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			errs.Errorf("escalation fault: %v", r)
		}
	}()

	author := e.resolveAuthor(ctx, id)

	opts := forge.IssueOptions{
		Title:  fmt.Sprintf("Publishing failed: %s (build %s)", e.Context.Description, id.BuildID),
		Body:   e.issueBody(id, author, errs.Entries()),
		Labels: []string{"publishing-failure"},
	}

	issue, err := e.Tracker.CreateIssue(ctx, opts)
	if err != nil {
		errs.Errorf("creating tracking issue: %v", err)
		return
	}

	e.Log.Info().Str("issue", issue.ID).Str("url", issue.URL).Msg("tracking issue filed")
}

// resolveAuthor looks up the commit author on the source forge. Any
// failure falls back to a placeholder; author lookup can never block
// issue creation.
func (e *Escalator) resolveAuthor(ctx context.Context, id manifest.BuildIdentity) string {
	if id.CommitSHA == "" {
		return authorFallback
	}

	source := e.Source
	if source == nil {
		provider := forge.DetectProvider(id.RepoURL)
		if provider == forge.Unknown {
			e.Log.Warn().Str("repo", id.RepoURL).Msg("could not detect forge for author lookup")
			return authorFallback
		}
		var err error
		source, err = forge.New(provider, forge.BaseURL(id.RepoURL), forge.RepoPath(id.RepoURL), e.SourceToken)
		if err != nil {
			e.Log.Warn().Err(err).Msg("building source forge client failed")
			return authorFallback
		}
	}

	author, err := source.CommitAuthor(ctx, id.CommitSHA)
	if err != nil {
		e.Log.Warn().Err(err).Str("commit", id.CommitSHA).Msg("commit author lookup failed")
		return authorFallback
	}
	return author
}

func (e *Escalator) issueBody(id manifest.BuildIdentity, author string, entries []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Publishing build assets failed for **%s**.\n\n", e.Context.Description)
	fmt.Fprintf(&b, "- Repo: %s\n", id.RepoURL)
	fmt.Fprintf(&b, "- Commit: %s\n", id.CommitSHA)
	fmt.Fprintf(&b, "- Build: %s\n", id.BuildID)
	fmt.Fprintf(&b, "- Author: %s\n", author)
	if e.Context.PipelineURL != "" {
		fmt.Fprintf(&b, "- Pipeline: %s\n", e.Context.PipelineURL)
	}
	if e.Context.TriggeringBuildURL != "" {
		fmt.Fprintf(&b, "- Run logs: %s\n", e.Context.TriggeringBuildURL)
	}

	b.WriteString("\n### Errors\n\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "- %s\n", entry)
	}

	if len(e.Notify) > 0 {
		fmt.Fprintf(&b, "\n/cc %s\n", strings.Join(e.Notify, " "))
	}

	return b.String()
}
