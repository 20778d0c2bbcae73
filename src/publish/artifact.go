// Package publish implements the core publishing orchestration: the
// bounded-concurrency upload engine, the idempotency protocol, registry
// reconciliation, and the pipeline tying them together.
package publish

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/sofmeright/feedfreight/src/manifest"
)

// Kind distinguishes the two artifact classes a manifest may list.
type Kind int

const (
	KindPackage Kind = iota
	KindBlob
)

func (k Kind) String() string {
	if k == KindPackage {
		return "package"
	}
	return "blob"
}

// Artifact is one unit of work for the upload engine. Packages and blobs
// share the engine; the per-kind differences are confined to addressing
// (RemoteAddress, LocationKind) and identity (Key).
type Artifact struct {
	Kind       Kind
	ID         string
	Version    string // packages only
	LocalPath  string // relative to the class base dir, or absolute
	RemotePath string // blobs only: relative path on the feed
}

// PackageArtifact adapts a manifest package entry.
func PackageArtifact(p manifest.Package) Artifact {
	return Artifact{
		Kind:      KindPackage,
		ID:        p.ID,
		Version:   p.Version,
		LocalPath: p.LocalPath,
	}
}

// BlobArtifact adapts a manifest blob entry.
func BlobArtifact(b manifest.Blob) Artifact {
	return Artifact{
		Kind:       KindBlob,
		ID:         b.ID,
		LocalPath:  b.LocalPath,
		RemotePath: b.RemotePath,
	}
}

// Key returns the artifact's identity key: packages are unique per
// (id, version), blobs per id.
func (a Artifact) Key() string {
	if a.Kind == KindPackage {
		return fmt.Sprintf("package:%s@%s", a.ID, a.Version)
	}
	return fmt.Sprintf("blob:%s", a.ID)
}

// RemoteAddress builds the destination address on the feed. Packages land
// in the feed's package index layout; blobs under their manifest-chosen
// relative path in the flat container.
func (a Artifact) RemoteAddress(feedURL string) string {
	base := feedURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if a.Kind == KindPackage {
		return fmt.Sprintf("%s/packages/%s/%s/%s", base, a.ID, a.Version, path.Base(filepath.ToSlash(a.LocalPath)))
	}
	return fmt.Sprintf("%s/assets/%s", base, path.Clean(a.RemotePath))
}

// ResolveLocal resolves the artifact's on-disk path against the class base
// directory.
func (a Artifact) ResolveLocal(baseDir string) string {
	if filepath.IsAbs(a.LocalPath) || baseDir == "" {
		return a.LocalPath
	}
	return filepath.Join(baseDir, a.LocalPath)
}

// LocationKind is the tag recorded against the asset registry entry for
// this artifact's new location.
func (a Artifact) LocationKind() string {
	if a.Kind == KindPackage {
		return "package-feed"
	}
	return "blob-container"
}
