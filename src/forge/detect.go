package forge

import (
	"strings"
)

// DetectProvider determines the forge platform from a git remote URL.
func DetectProvider(remoteURL string) Provider {
	lower := strings.ToLower(remoteURL)

	switch {
	case strings.Contains(lower, "github.com"):
		return GitHub
	case strings.Contains(lower, "gitlab"):
		return GitLab
	case strings.Contains(lower, "gitea") || strings.Contains(lower, "forgejo") || strings.Contains(lower, "codeberg"):
		return Gitea
	default:
		// Self-hosted instances without obvious domain hints.
		// Future: probe the API to detect (GitLab /api/v4, GitHub /api/v3, Gitea /api/v1).
		return Unknown
	}
}

// BaseURL extracts the forge base URL from a git remote URL.
// Handles SSH (git@host:path) and HTTPS (https://host/path) formats.
func BaseURL(remoteURL string) string {
	url := remoteURL

	// SSH format: git@host:org/repo.git
	if strings.HasPrefix(url, "git@") || strings.Contains(url, "@") && strings.Contains(url, ":") {
		parts := strings.SplitN(url, "@", 2)
		if len(parts) == 2 {
			hostPath := parts[1]
			colonIdx := strings.Index(hostPath, ":")
			if colonIdx >= 0 {
				host := hostPath[:colonIdx]
				return "https://" + host
			}
		}
	}

	// HTTPS format: https://host/org/repo.git
	if strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
		withoutScheme := url
		scheme := "https://"
		if strings.HasPrefix(url, "http://") {
			scheme = "http://"
			withoutScheme = strings.TrimPrefix(url, "http://")
		} else {
			withoutScheme = strings.TrimPrefix(url, "https://")
		}
		slashIdx := strings.Index(withoutScheme, "/")
		if slashIdx >= 0 {
			return scheme + withoutScheme[:slashIdx]
		}
		return scheme + withoutScheme
	}

	return url
}

// RepoPath extracts the "owner/name" path from a git remote URL.
// Handles SSH (git@host:owner/repo.git) and HTTPS (https://host/owner/repo)
// formats. Returns "" when no path is present.
func RepoPath(remoteURL string) string {
	url := strings.TrimSuffix(remoteURL, ".git")

	// SSH format: git@host:owner/repo
	if at := strings.Index(url, "@"); at >= 0 && !strings.Contains(url, "://") {
		hostPath := url[at+1:]
		if colon := strings.Index(hostPath, ":"); colon >= 0 {
			return strings.Trim(hostPath[colon+1:], "/")
		}
		return ""
	}

	// HTTPS format: strip scheme and host
	for _, scheme := range []string{"https://", "http://", "ssh://"} {
		if strings.HasPrefix(url, scheme) {
			rest := strings.TrimPrefix(url, scheme)
			if slash := strings.Index(rest, "/"); slash >= 0 {
				return strings.Trim(rest[slash+1:], "/")
			}
			return ""
		}
	}

	return ""
}
