package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/feedfreight/src/assetdb"
	"github.com/sofmeright/feedfreight/src/escalate"
	"github.com/sofmeright/feedfreight/src/feed"
	"github.com/sofmeright/feedfreight/src/forge"
	"github.com/sofmeright/feedfreight/src/logging"
	"github.com/sofmeright/feedfreight/src/output"
	"github.com/sofmeright/feedfreight/src/publish"
	"github.com/sofmeright/feedfreight/src/scan"
)

var (
	pubManifest        string
	pubFeedURL         string
	pubBuildID         string
	pubPackageDir      string
	pubBlobDir         string
	pubOverwrite       bool
	pubPassIfIdentical bool
	pubMaxConcurrent   int
	pubTimeoutMinutes  int
	pubDryRun          bool
	pubStageDir        string
	pubScanSecrets     bool
	pubDescription     string
	pubPipelineURL     string
	pubBuildURL        string
	pubIssueRepo       string
	pubNotify          []string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a build's artifacts to the feed",
	Long: `Publish the packages and blobs listed in a build manifest to the
artifact feed, then record the new locations against the build's
assets in the registry.

Uploads run with bounded concurrency and the whole batch is always
drained: one failing artifact never cancels its siblings. When any
error was logged, a tracking issue is filed on the configured repo.

Exits non-zero iff any error was logged during the run.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&pubManifest, "manifest", "", "build manifest file (yaml or toml)")
	publishCmd.Flags().StringVar(&pubFeedURL, "feed-url", "", "artifact feed base URL")
	publishCmd.Flags().StringVar(&pubBuildID, "build-id", "", "registry build id (default: from manifest)")
	publishCmd.Flags().StringVar(&pubPackageDir, "package-dir", "", "local base dir for package paths")
	publishCmd.Flags().StringVar(&pubBlobDir, "blob-dir", "", "local base dir for blob paths")
	publishCmd.Flags().BoolVar(&pubOverwrite, "overwrite", false, "overwrite artifacts that already exist on the feed")
	publishCmd.Flags().BoolVar(&pubPassIfIdentical, "pass-if-identical", false, "treat byte-identical pre-existing artifacts as success")
	publishCmd.Flags().IntVar(&pubMaxConcurrent, "max-concurrent", 0, "max concurrent uploads (default 8)")
	publishCmd.Flags().IntVar(&pubTimeoutMinutes, "timeout-minutes", 0, "per-upload timeout in minutes (default 5)")
	publishCmd.Flags().BoolVar(&pubDryRun, "dry-run", false, "stage uploads into a local directory, no registry or issue calls")
	publishCmd.Flags().StringVar(&pubStageDir, "stage-dir", "feedfreight-stage", "staging directory for --dry-run")
	publishCmd.Flags().BoolVar(&pubScanSecrets, "scan-secrets", false, "withhold artifacts containing detectable secrets")
	publishCmd.Flags().StringVar(&pubDescription, "description", "", "release description for failure issues")
	publishCmd.Flags().StringVar(&pubPipelineURL, "pipeline-url", "", "publishing pipeline URL for failure issues")
	publishCmd.Flags().StringVar(&pubBuildURL, "build-url", "", "triggering run URL for failure issues")
	publishCmd.Flags().StringVar(&pubIssueRepo, "issue-repo", "", "repo to file failure issues in")
	publishCmd.Flags().StringSliceVar(&pubNotify, "notify", nil, "handles to cc on failure issues (repeatable)")

	rootCmd.AddCommand(publishCmd)
}

// pick returns the flag value when set, otherwise the config value.
func pick(flag, fromConfig string) string {
	if flag != "" {
		return flag
	}
	return fromConfig
}

func runPublish(cmd *cobra.Command, args []string) error {
	log := logging.New(verbose)
	ctx := context.Background()

	policy := publish.PushPolicy{
		AllowOverwrite:          pubOverwrite || cfg.Publish.Overwrite,
		PassIfIdenticalExisting: pubPassIfIdentical || cfg.Publish.PassIfIdentical,
		MaxConcurrentUploads:    cfg.Publish.MaxConcurrent,
		PerUploadTimeout:        time.Duration(cfg.Publish.TimeoutMinutes) * time.Minute,
	}
	if pubMaxConcurrent > 0 {
		policy.MaxConcurrentUploads = pubMaxConcurrent
	}
	if pubTimeoutMinutes > 0 {
		policy.PerUploadTimeout = time.Duration(pubTimeoutMinutes) * time.Minute
	}

	opts := publish.Options{
		ManifestPath: pick(pubManifest, cfg.Publish.Manifest),
		PackageDir:   pick(pubPackageDir, cfg.Publish.PackageDir),
		BlobDir:      pick(pubBlobDir, cfg.Publish.BlobDir),
		FeedURL:      pick(pubFeedURL, cfg.Feed.URL),
		FeedToken:    cfg.Feed.Credential(),
		BuildID:      pubBuildID,
		Policy:       policy,
		ScanSecrets:  pubScanSecrets || cfg.Publish.ScanSecrets,
		DryRun:       pubDryRun,
	}

	pipe := &publish.Pipeline{
		Opts: opts,
		Log:  log,
	}

	if pubDryRun {
		pipe.Transport = feed.NewLocal(pubStageDir)
	} else {
		pipe.Transport = feed.NewHTTP(opts.FeedToken)
		if cfg.Registry.URL != "" {
			pipe.Registry = assetdb.NewClient(cfg.Registry.URL, cfg.Registry.Credential())
		}

		tracker, err := forge.New(
			forge.Provider(cfg.Issues.Provider),
			cfg.Issues.BaseURL,
			pick(pubIssueRepo, cfg.Issues.Repo),
			cfg.Issues.Token,
		)
		if err != nil {
			return fmt.Errorf("configuring issue tracker: %w", err)
		}

		notify := pubNotify
		if len(notify) == 0 {
			notify = cfg.Issues.Notify
		}

		pipe.Escalator = &escalate.Escalator{
			SourceToken: cfg.Issues.Token,
			Tracker:     tracker,
			Notify:      notify,
			Context: escalate.ReleaseContext{
				Description:        pick(pubDescription, cfg.Publish.Description),
				PipelineURL:        pick(pubPipelineURL, cfg.Publish.PipelineURL),
				TriggeringBuildURL: pick(pubBuildURL, cfg.Publish.BuildURL),
			},
			Log: log,
		}
	}

	if opts.ScanSecrets {
		scanner, err := scan.NewSecretScanner()
		if err != nil {
			return fmt.Errorf("initializing secret scanner: %w", err)
		}
		pipe.Scanner = scanner
	}

	report, ok := pipe.Run(ctx)
	report.Render(os.Stdout, output.UseColor())

	if !ok {
		return fmt.Errorf("publishing completed with errors")
	}
	return nil
}
