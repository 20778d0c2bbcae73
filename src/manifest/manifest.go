// Package manifest defines the build manifest model: the identity of one
// build and the list of artifacts it produced. A manifest is parsed once at
// the start of a publish run and is read-only afterwards.
package manifest

import (
	"fmt"
	"path"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

// BuildIdentity names the build a manifest belongs to. It is used only as
// failure-reporting context, never for addressing uploads.
type BuildIdentity struct {
	RepoURL   string `yaml:"repo_url" toml:"repo_url"`
	CommitSHA string `yaml:"commit_sha" toml:"commit_sha"`
	BuildID   string `yaml:"build_id" toml:"build_id"`
}

// Package is a versioned package artifact. Uniqueness key: (ID, Version).
type Package struct {
	ID        string `yaml:"id" toml:"id"`
	Version   string `yaml:"version" toml:"version"`
	LocalPath string `yaml:"path" toml:"path"`
}

// Blob is a loose file artifact published under a caller-chosen relative
// path on the feed. Uniqueness key: ID.
type Blob struct {
	ID         string `yaml:"id" toml:"id"`
	LocalPath  string `yaml:"path" toml:"path"`
	RemotePath string `yaml:"remote_path" toml:"remote_path"`
}

// Manifest is the parsed build manifest.
type Manifest struct {
	Build    BuildIdentity `yaml:"build" toml:"build"`
	Packages []Package     `yaml:"packages" toml:"packages"`
	Blobs    []Blob        `yaml:"blobs" toml:"blobs"`
}

// Validate checks artifact entries for structural problems: empty identity
// fields, non-semver package versions, duplicate keys, and blob remote
// paths that escape the feed's namespace.
func (m *Manifest) Validate() error {
	seenPkg := make(map[string]bool, len(m.Packages))
	for i, p := range m.Packages {
		if p.ID == "" {
			return fmt.Errorf("package %d: missing id", i)
		}
		if p.LocalPath == "" {
			return fmt.Errorf("package %s: missing path", p.ID)
		}
		if _, err := masterminds.StrictNewVersion(strings.TrimPrefix(p.Version, "v")); err != nil {
			return fmt.Errorf("package %s: version %q is not semver: %w", p.ID, p.Version, err)
		}
		key := p.ID + "@" + p.Version
		if seenPkg[key] {
			return fmt.Errorf("package %s@%s listed twice", p.ID, p.Version)
		}
		seenPkg[key] = true
	}

	seenBlob := make(map[string]bool, len(m.Blobs))
	for i, b := range m.Blobs {
		if b.ID == "" {
			return fmt.Errorf("blob %d: missing id", i)
		}
		if b.LocalPath == "" {
			return fmt.Errorf("blob %s: missing path", b.ID)
		}
		if err := validRemotePath(b.RemotePath); err != nil {
			return fmt.Errorf("blob %s: %w", b.ID, err)
		}
		if seenBlob[b.ID] {
			return fmt.Errorf("blob %s listed twice", b.ID)
		}
		seenBlob[b.ID] = true
	}

	return nil
}

// validRemotePath rejects remote paths that are absolute or traverse out of
// the feed namespace.
func validRemotePath(p string) error {
	if p == "" {
		return fmt.Errorf("missing remote_path")
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("remote_path %q must be relative", p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("remote_path %q escapes the feed root", p)
	}
	return nil
}
