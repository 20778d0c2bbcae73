// Package gitver resolves build identity fields from the local git checkout.
// Manifests produced by older build definitions omit the repo URL or commit
// SHA; when the publisher runs inside the checkout that produced the build,
// those blanks can be filled from git itself.
package gitver

import (
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/sofmeright/feedfreight/src/manifest"
)

// ResolveIdentity fills empty RepoURL and CommitSHA fields of id from the
// repository at rootDir. Fields already set by the manifest are never
// overwritten. Returns an error when a blank field could not be resolved;
// callers treat that as best-effort.
func ResolveIdentity(rootDir string, id *manifest.BuildIdentity) error {
	if id.RepoURL != "" && id.CommitSHA != "" {
		return nil
	}

	repo, err := git.PlainOpen(rootDir)
	if err != nil {
		return fmt.Errorf("opening repo at %s: %w", rootDir, err)
	}

	if id.CommitSHA == "" {
		head, err := repo.Head()
		if err != nil {
			return fmt.Errorf("resolving HEAD: %w", err)
		}
		id.CommitSHA = head.Hash().String()
	}

	if id.RepoURL == "" {
		remote, err := repo.Remote("origin")
		if err != nil {
			return fmt.Errorf("resolving origin remote: %w", err)
		}
		urls := remote.Config().URLs
		if len(urls) == 0 {
			return fmt.Errorf("origin remote has no URL")
		}
		id.RepoURL = urls[0]
	}

	return nil
}
