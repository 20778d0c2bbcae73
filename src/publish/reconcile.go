package publish

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sofmeright/feedfreight/src/assetdb"
	"github.com/sofmeright/feedfreight/src/runlog"
)

// AssetLocator is the slice of the registry client the reconciler needs.
type AssetLocator interface {
	AddAssetLocation(ctx context.Context, assetID, locationURL, kind string) error
}

// Reconciler records the new feed location of each successfully uploaded
// artifact against its asset record in the build's registry entry.
type Reconciler struct {
	Registry AssetLocator
	FeedURL  string
	Log      zerolog.Logger
	Errors   *runlog.Log
}

// Reconcile walks the batch in manifest order. Only artifacts whose upload
// succeeded are eligible; a failed upload is never recorded as newly
// located. Matching misses are integrity errors: they are logged and the
// walk continues, so one bad record never blocks the rest of the batch.
//
// Packages must match exactly one registry asset by (name, version). Blobs
// match by name alone, first match wins, but absence is still an error.
func (r *Reconciler) Reconcile(ctx context.Context, build *assetdb.BuildRecord, artifacts []Artifact, outcomes map[string]Outcome) {
	for _, a := range artifacts {
		out, ok := outcomes[a.Key()]
		if !ok || !out.Succeeded() {
			continue
		}

		asset, found := r.match(build, a)
		if !found {
			continue
		}

		if err := r.Registry.AddAssetLocation(ctx, asset.ID, r.FeedURL, a.LocationKind()); err != nil {
			r.Errors.Errorf("recording location for %s (asset %s): %v", a.Key(), asset.ID, err)
			continue
		}
		r.Log.Debug().Str("artifact", a.Key()).Str("asset", asset.ID).Msg("location recorded")
	}
}

func (r *Reconciler) match(build *assetdb.BuildRecord, a Artifact) (assetdb.Asset, bool) {
	if a.Kind == KindPackage {
		var matches []assetdb.Asset
		for _, asset := range build.Assets {
			if asset.Name == a.ID && asset.Version == a.Version {
				matches = append(matches, asset)
			}
		}
		if len(matches) != 1 {
			r.Errors.Errorf("registry integrity: package %s@%s has %d matching records in build %s, want exactly 1",
				a.ID, a.Version, len(matches), build.ID)
			return assetdb.Asset{}, false
		}
		return matches[0], true
	}

	for _, asset := range build.Assets {
		if asset.Name == a.ID {
			return asset, true
		}
	}
	r.Errors.Errorf("registry integrity: blob %s has no matching record in build %s", a.ID, build.ID)
	return assetdb.Asset{}, false
}
