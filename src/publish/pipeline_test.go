package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/feedfreight/src/assetdb"
	"github.com/sofmeright/feedfreight/src/manifest"
	"github.com/sofmeright/feedfreight/src/runlog"
	"github.com/sofmeright/feedfreight/src/scan"
)

type fakeRegistry struct {
	fakeLocator
	build    *assetdb.BuildRecord
	getErr   error
	getCalls atomic.Int64
}

func (f *fakeRegistry) GetBuild(ctx context.Context, buildID string) (*assetdb.BuildRecord, error) {
	f.getCalls.Add(1)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.build, nil
}

type fakeEscalator struct {
	calls       int
	lastBuildID string
	lastEntries []string
}

func (f *fakeEscalator) Escalate(ctx context.Context, id manifest.BuildIdentity, errs *runlog.Log) {
	f.calls++
	f.lastBuildID = id.BuildID
	f.lastEntries = errs.Entries()
}

type fakeScanner struct {
	findings map[string][]scan.Finding // local path → findings
}

func (f *fakeScanner) ScanFile(path string) ([]scan.Finding, error) {
	return f.findings[path], nil
}

// pipelineFixture lays out a package dir with three packages and a
// matching manifest, plus a registry record holding one asset each.
type pipelineFixture struct {
	manifestPath string
	packageDir   string
	registry     *fakeRegistry
	escalator    *fakeEscalator
	transport    *fakeTransport
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	packageDir := t.TempDir()
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("p%d.1.0.0.nupkg", i)
		require.NoError(t, os.WriteFile(filepath.Join(packageDir, name), []byte(fmt.Sprintf("payload-%d", i)), 0o644))
	}

	manifestPath := filepath.Join(t.TempDir(), "manifest.yml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
build:
  repo_url: https://github.com/sofmeright/demo
  commit_sha: abc1234def5678
  build_id: "20260829.3"
packages:
  - { id: p1, version: 1.0.0, path: p1.1.0.0.nupkg }
  - { id: p2, version: 1.0.0, path: p2.1.0.0.nupkg }
  - { id: p3, version: 1.0.0, path: p3.1.0.0.nupkg }
`), 0o644))

	return &pipelineFixture{
		manifestPath: manifestPath,
		packageDir:   packageDir,
		registry: &fakeRegistry{build: &assetdb.BuildRecord{
			ID: "20260829.3",
			Assets: []assetdb.Asset{
				{ID: "asset-1", Name: "p1", Version: "1.0.0"},
				{ID: "asset-2", Name: "p2", Version: "1.0.0"},
				{ID: "asset-3", Name: "p3", Version: "1.0.0"},
			},
		}},
		escalator: &fakeEscalator{},
		transport: newFakeTransport(),
	}
}

func (fx *pipelineFixture) pipeline(policy PushPolicy) *Pipeline {
	return &Pipeline{
		Opts: Options{
			ManifestPath: fx.manifestPath,
			PackageDir:   fx.packageDir,
			FeedURL:      testFeedURL,
			FeedToken:    "opaque-token",
			RepoRoot:     fx.packageDir, // not a git repo: identity comes from the manifest
			Policy:       policy,
		},
		Transport: fx.transport,
		Registry:  fx.registry,
		Escalator: fx.escalator,
		Log:       zerolog.Nop(),
	}
}

func artifactKey(id string) string {
	return fmt.Sprintf("package:%s@1.0.0", id)
}

func p2Address(t *testing.T) string {
	t.Helper()
	return PackageArtifact(manifest.Package{ID: "p2", Version: "1.0.0", LocalPath: "p2.1.0.0.nupkg"}).RemoteAddress(testFeedURL)
}

func TestRunAllNewPackagesSucceeds(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	policy := testPolicy()
	policy.PassIfIdenticalExisting = true

	report, ok := fx.pipeline(policy).Run(context.Background())

	assert.True(t, ok)
	created, skipped, failed := report.Counts()
	assert.Equal(t, 3, created)
	assert.Zero(t, skipped)
	assert.Zero(t, failed)
	assert.Len(t, fx.registry.calls, 3)
	assert.Zero(t, fx.escalator.calls, "clean run must not file an issue")
}

func TestRunIdenticalExistingPackageSkipsAndStillReconciles(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	fx.transport.existing[p2Address(t)] = []byte("payload-2")

	policy := testPolicy()
	policy.PassIfIdenticalExisting = true

	report, ok := fx.pipeline(policy).Run(context.Background())

	assert.True(t, ok)
	created, skipped, failed := report.Counts()
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, skipped)
	assert.Zero(t, failed)
	assert.Len(t, fx.registry.calls, 3, "skipped-identical artifacts still reconcile")
	assert.Zero(t, fx.escalator.calls)
}

func TestRunMismatchedExistingPackageFailsAndEscalates(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	fx.transport.existing[p2Address(t)] = []byte("different payload")

	policy := testPolicy()
	policy.PassIfIdenticalExisting = true

	report, ok := fx.pipeline(policy).Run(context.Background())

	assert.False(t, ok)
	created, _, failed := report.Counts()
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, failed)

	// Only p1 and p3 may be recorded as newly located.
	require.Len(t, fx.registry.calls, 2)
	for _, call := range fx.registry.calls {
		assert.NotEqual(t, "asset-2", call.AssetID)
	}

	assert.Equal(t, 1, fx.escalator.calls)
	assert.Equal(t, "20260829.3", fx.escalator.lastBuildID)
}

func TestRunValidationFailureShortCircuitsBeforeNetwork(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	p := fx.pipeline(testPolicy())
	p.Opts.FeedURL = ""

	_, ok := p.Run(context.Background())

	assert.False(t, ok)
	assert.Zero(t, fx.registry.getCalls.Load(), "validation failure must precede any registry call")
	assert.Equal(t, 1, fx.escalator.calls, "logged errors trigger escalation")
}

func TestRunInvalidPolicyShortCircuits(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	p := fx.pipeline(PushPolicy{MaxConcurrentUploads: 0, PerUploadTimeout: 0})

	_, ok := p.Run(context.Background())

	assert.False(t, ok)
	assert.Zero(t, fx.registry.getCalls.Load())
}

func TestRunBuildRecordFetchFailureEndsRunBeforeUploads(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	fx.registry.getErr = assert.AnError

	report, ok := fx.pipeline(testPolicy()).Run(context.Background())

	assert.False(t, ok)
	created, skipped, failed := report.Counts()
	assert.Zero(t, created+skipped+failed, "no uploads without a matching universe")
	assert.Equal(t, 1, fx.escalator.calls)
}

func TestRunMissingPackageDirFailsClassNotRun(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	p := fx.pipeline(testPolicy())
	p.Opts.PackageDir = filepath.Join(fx.packageDir, "does-not-exist")

	_, ok := p.Run(context.Background())

	assert.False(t, ok)
	assert.Equal(t, 1, fx.escalator.calls)
}

func TestRunDryRunSkipsRegistryAndEscalation(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	p := fx.pipeline(testPolicy())
	p.Opts.DryRun = true
	p.Opts.FeedToken = ""
	p.Registry = nil

	report, ok := p.Run(context.Background())

	assert.True(t, ok)
	created, _, _ := report.Counts()
	assert.Equal(t, 3, created)
	assert.Zero(t, fx.escalator.calls)
}

func TestRunSecretGateWithholdsArtifact(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	p := fx.pipeline(testPolicy())
	p.Opts.ScanSecrets = true
	leaky := filepath.Join(fx.packageDir, "p2.1.0.0.nupkg")
	p.Scanner = &fakeScanner{findings: map[string][]scan.Finding{
		leaky: {{Path: leaky, Line: 3, RuleID: "generic-api-key", Description: "Generic API key"}},
	}}

	report, ok := p.Run(context.Background())

	assert.False(t, ok)
	created, _, failed := report.Counts()
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, failed)
	assert.Zero(t, fx.transport.uploadCount(p2Address(t)), "withheld artifact must never reach the feed")
	assert.Equal(t, 1, fx.escalator.calls)
}

func TestRunEscalatesAtMostOnce(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t)
	fx.transport.failWith[p2Address(t)] = fmt.Errorf("boom")
	fx.registry.err = assert.AnError // reconciliation errors too

	_, ok := fx.pipeline(testPolicy()).Run(context.Background())

	assert.False(t, ok)
	assert.Equal(t, 1, fx.escalator.calls)
	assert.NotEmpty(t, fx.escalator.lastEntries)
}
