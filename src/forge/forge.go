// Package forge provides a platform-agnostic abstraction over git forges
// (GitLab, GitHub, Gitea/Forgejo) for the two operations publishing needs:
// resolving the author of a commit and filing a tracking issue. Every call
// goes through the Forge interface so escalation works identically
// regardless of where the repo is hosted.
package forge

import (
	"context"
	"fmt"
)

// Provider identifies a git forge platform.
type Provider string

const (
	GitLab  Provider = "gitlab"
	GitHub  Provider = "github"
	Gitea   Provider = "gitea"
	Unknown Provider = "unknown"
)

// Forge is the interface every platform implements.
type Forge interface {
	// Provider returns which platform this forge represents.
	Provider() Provider

	// CommitAuthor resolves a human-readable handle for the author of the
	// given commit in this forge's repo.
	CommitAuthor(ctx context.Context, sha string) (string, error)

	// CreateIssue files a tracking issue in this forge's repo.
	CreateIssue(ctx context.Context, opts IssueOptions) (*Issue, error)
}

// IssueOptions configures a new tracking issue.
type IssueOptions struct {
	Title  string
	Body   string // markdown
	Labels []string
}

// Issue is a created issue on a forge.
type Issue struct {
	ID  string // platform-specific ID or number
	URL string // web URL to the issue page
}

// New creates a forge client for the given provider. Repo is "owner/name"
// (GitLab accepts a nested group path). Token may be empty, in which case
// each provider falls back to its usual environment variables.
func New(provider Provider, baseURL, repo, token string) (Forge, error) {
	switch provider {
	case GitHub:
		return NewGitHub(baseURL, repo, token), nil
	case GitLab:
		return NewGitLab(baseURL, repo, token), nil
	case Gitea:
		return NewGitea(baseURL, repo, token), nil
	default:
		return nil, fmt.Errorf("forge: unsupported provider %q (valid: github, gitlab, gitea)", provider)
	}
}
