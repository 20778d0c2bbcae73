package forge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		remote string
		want   Provider
	}{
		{"https://github.com/sofmeright/feedfreight.git", GitHub},
		{"git@github.com:sofmeright/feedfreight.git", GitHub},
		{"https://gitlab.com/group/project.git", GitLab},
		{"https://gitlab.prplanit.com/group/project.git", GitLab},
		{"https://gitea.prplanit.com/org/repo.git", Gitea},
		{"git@codeberg.org:org/repo.git", Gitea},
		{"https://forgejo.example.com/org/repo.git", Gitea},
		{"https://scm.example.com/org/repo.git", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProvider(tt.remote))
		})
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"git@github.com:sofmeright/feedfreight.git", "https://github.com"},
		{"https://github.com/sofmeright/feedfreight.git", "https://github.com"},
		{"http://gitea.internal/org/repo.git", "http://gitea.internal"},
		{"https://gitlab.prplanit.com/group/sub/project.git", "https://gitlab.prplanit.com"},
		{"https://github.com", "https://github.com"},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseURL(tt.remote))
		})
	}
}

func TestRepoPath(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"git@github.com:sofmeright/feedfreight.git", "sofmeright/feedfreight"},
		{"https://github.com/sofmeright/feedfreight.git", "sofmeright/feedfreight"},
		{"https://gitlab.prplanit.com/group/sub/project.git", "group/sub/project"},
		{"ssh://git@gitea.internal/org/repo", "org/repo"},
		{"https://github.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, RepoPath(tt.remote))
		})
	}
}
