package publish

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/sofmeright/feedfreight/src/assetdb"
	"github.com/sofmeright/feedfreight/src/feed"
	"github.com/sofmeright/feedfreight/src/gitver"
	"github.com/sofmeright/feedfreight/src/manifest"
	"github.com/sofmeright/feedfreight/src/runlog"
	"github.com/sofmeright/feedfreight/src/scan"
)

// Options carries everything the pipeline needs for one run.
type Options struct {
	ManifestPath string
	PackageDir   string // base dir for package local paths
	BlobDir      string // base dir for blob local paths
	FeedURL      string
	FeedToken    string
	BuildID      string // overrides the manifest's build id when set
	RepoRoot     string // checkout used for identity resolution, default "."
	Policy       PushPolicy
	ScanSecrets  bool
	DryRun       bool // local staging only: no registry calls, no escalation
}

// AssetRegistry is the build-asset registry surface the pipeline consumes.
// *assetdb.Client satisfies it.
type AssetRegistry interface {
	GetBuild(ctx context.Context, buildID string) (*assetdb.BuildRecord, error)
	AddAssetLocation(ctx context.Context, assetID, locationURL, kind string) error
}

// IssueEscalator files a tracking issue for a failed run.
// *escalate.Escalator satisfies it.
type IssueEscalator interface {
	Escalate(ctx context.Context, id manifest.BuildIdentity, errs *runlog.Log)
}

// SecretScanner detects credentials in artifact files before upload.
// *scan.SecretScanner satisfies it.
type SecretScanner interface {
	ScanFile(path string) ([]scan.Finding, error)
}

// Pipeline sequences one publish run: validate, parse the manifest, fetch
// the registry build record, publish each artifact class, reconcile the
// registry, and escalate when anything was logged.
type Pipeline struct {
	Opts      Options
	Transport feed.Transport
	Registry  AssetRegistry  // nil in dry runs
	Escalator IssueEscalator // nil in dry runs
	Scanner   SecretScanner  // consulted only when Opts.ScanSecrets
	Log       zerolog.Logger
}

// Run executes the pipeline. It returns the outcome report and a boolean
// that is true iff no error was logged at any point. Run never panics out:
// unexpected faults become logged errors, and escalation failures never
// change the result.
func (p *Pipeline) Run(ctx context.Context) (*Report, bool) {
	errs := runlog.New(p.Log)
	report := NewReport()

	identity := p.runGuarded(ctx, errs, report)

	if errs.HasErrors() && !p.Opts.DryRun && p.Escalator != nil {
		p.Escalator.Escalate(ctx, identity, errs)
	}

	return report, !errs.HasErrors()
}

// runGuarded runs steps 1-5 with a recover barrier so that a fault in any
// step still reaches the escalation decision.
func (p *Pipeline) runGuarded(ctx context.Context, errs *runlog.Log, report *Report) (id manifest.BuildIdentity) {
	defer func() {
		if r := recover(); r != nil {
			errs.Errorf("unexpected fault during publishing: %v", r)
		}
	}()

	// Step 1: input validation, before any network call.
	if err := p.validate(); err != nil {
		errs.Errorf("invalid publish options: %v", err)
		return id
	}

	// Step 2: parse the manifest.
	m, err := manifest.Load(p.Opts.ManifestPath)
	if err != nil {
		errs.Errorf("loading manifest: %v", err)
		return id
	}
	if err := m.Validate(); err != nil {
		errs.Errorf("invalid manifest: %v", err)
		return id
	}

	id = m.Build
	if p.Opts.BuildID != "" {
		id.BuildID = p.Opts.BuildID
	}

	// Fill identity blanks from the local checkout, best effort.
	root := p.Opts.RepoRoot
	if root == "" {
		root = "."
	}
	if err := gitver.ResolveIdentity(root, &id); err != nil {
		p.Log.Debug().Err(err).Msg("identity resolution from git skipped")
	}

	if id.BuildID == "" {
		errs.Append("no build id: set publish.build_id in the manifest or pass --build-id")
		return id
	}

	// Step 3: fetch the registry's build record, the matching universe for
	// reconciliation. Without it nothing can be reconciled, so a failure
	// here ends the run before any upload.
	var build *assetdb.BuildRecord
	if !p.Opts.DryRun {
		build, err = p.Registry.GetBuild(ctx, id.BuildID)
		if err != nil {
			errs.Errorf("fetching build record: %v", err)
			return id
		}
	}

	// Steps 4 and 5: publish packages, then blobs. The classes are
	// independent; a missing base dir fails one class without silencing
	// the other.
	packages := make([]Artifact, 0, len(m.Packages))
	for _, pkg := range m.Packages {
		packages = append(packages, PackageArtifact(pkg))
	}
	blobs := make([]Artifact, 0, len(m.Blobs))
	for _, b := range m.Blobs {
		blobs = append(blobs, BlobArtifact(b))
	}

	p.publishClass(ctx, errs, report, build, packages, p.Opts.PackageDir)
	p.publishClass(ctx, errs, report, build, blobs, p.Opts.BlobDir)

	return id
}

func (p *Pipeline) validate() error {
	if p.Opts.FeedURL == "" {
		return fmt.Errorf("feed URL is required")
	}
	if !p.Opts.DryRun && p.Opts.FeedToken == "" {
		return fmt.Errorf("feed credential is required")
	}
	if !p.Opts.DryRun && p.Registry == nil {
		return fmt.Errorf("registry endpoint is required")
	}
	if p.Opts.ManifestPath == "" {
		return fmt.Errorf("manifest path is required")
	}
	if _, err := os.Stat(p.Opts.ManifestPath); err != nil {
		return fmt.Errorf("manifest path: %w", err)
	}
	return p.Opts.Policy.Validate()
}

// publishClass uploads one artifact class and reconciles its outcomes.
func (p *Pipeline) publishClass(ctx context.Context, errs *runlog.Log, report *Report, build *assetdb.BuildRecord, artifacts []Artifact, baseDir string) {
	if len(artifacts) == 0 {
		return
	}

	class := artifacts[0].Kind.String()

	if baseDir != "" {
		if _, err := os.Stat(baseDir); err != nil {
			errs.Errorf("%s base dir: %v", class, err)
			return
		}
	}

	toUpload, withheld := p.secretGate(errs, artifacts, baseDir)

	engine := &Engine{
		Transport: p.Transport,
		FeedURL:   p.Opts.FeedURL,
		Policy:    p.Opts.Policy,
		Log:       p.Log,
		Errors:    errs,
	}

	outcomes := engine.Publish(ctx, toUpload, baseDir)
	for key, out := range withheld {
		outcomes[key] = out
	}
	report.Merge(outcomes)

	if !p.Opts.DryRun && build != nil {
		reconciler := &Reconciler{
			Registry: p.Registry,
			FeedURL:  p.Opts.FeedURL,
			Log:      p.Log,
			Errors:   errs,
		}
		reconciler.Reconcile(ctx, build, artifacts, outcomes)
	}
}

// secretGate withholds artifacts whose files contain detectable secrets.
// Withheld artifacts get a failed outcome without ever being submitted to
// the upload engine.
func (p *Pipeline) secretGate(errs *runlog.Log, artifacts []Artifact, baseDir string) (keep []Artifact, withheld map[string]Outcome) {
	if !p.Opts.ScanSecrets || p.Scanner == nil {
		return artifacts, nil
	}

	withheld = make(map[string]Outcome)
	for _, a := range artifacts {
		local := a.ResolveLocal(baseDir)
		findings, err := p.Scanner.ScanFile(local)
		if err != nil {
			errs.Errorf("scanning %s: %v", a.Key(), err)
			withheld[a.Key()] = Failed(ReasonTransport, fmt.Sprintf("secret scan failed: %v", err))
			continue
		}
		if len(findings) > 0 {
			f := findings[0]
			errs.Errorf("secret detected in %s (%s at %s:%d); artifact withheld from upload",
				a.Key(), f.RuleID, f.Path, f.Line)
			withheld[a.Key()] = Failed(ReasonSecretDetected, fmt.Sprintf("%s at line %d", f.RuleID, f.Line))
			continue
		}
		keep = append(keep, a)
	}
	return keep, withheld
}
