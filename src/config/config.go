// Package config loads .feedfreight.yml and supplies defaults for the
// publish pipeline. Flags override config values; opaque credentials may
// live in the file or come from environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".feedfreight.yml"

// Config is the top-level feedfreight configuration.
type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	Registry RegistryConfig `yaml:"registry"`
	Publish  PublishConfig  `yaml:"publish"`
	Issues   IssueConfig    `yaml:"issues"`
}

// FeedConfig locates the artifact feed.
type FeedConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Credential resolves the feed credential: config value first, then the
// FEEDFREIGHT_FEED_TOKEN environment variable.
func (f FeedConfig) Credential() string {
	if f.Token != "" {
		return f.Token
	}
	return os.Getenv("FEEDFREIGHT_FEED_TOKEN")
}

// RegistryConfig locates the build-asset registry.
type RegistryConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Credential resolves the registry credential: config value first, then
// the FEEDFREIGHT_REGISTRY_TOKEN environment variable.
func (r RegistryConfig) Credential() string {
	if r.Token != "" {
		return r.Token
	}
	return os.Getenv("FEEDFREIGHT_REGISTRY_TOKEN")
}

// PublishConfig holds push policy defaults and local layout.
type PublishConfig struct {
	Manifest        string `yaml:"manifest"`
	PackageDir      string `yaml:"package_dir"`
	BlobDir         string `yaml:"blob_dir"`
	Overwrite       bool   `yaml:"overwrite"`
	PassIfIdentical bool   `yaml:"pass_if_identical"`
	MaxConcurrent   int    `yaml:"max_concurrent"`
	TimeoutMinutes  int    `yaml:"timeout_minutes"`
	ScanSecrets     bool   `yaml:"scan_secrets"`

	// Release context strings embedded in escalation issues.
	Description string `yaml:"description"`
	PipelineURL string `yaml:"pipeline_url"`
	BuildURL    string `yaml:"build_url"`
}

// IssueConfig controls where failure issues are filed.
type IssueConfig struct {
	Provider string   `yaml:"provider"` // github, gitlab, gitea
	BaseURL  string   `yaml:"base_url"`
	Repo     string   `yaml:"repo"`
	Token    string   `yaml:"token"`
	Notify   []string `yaml:"notify"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Publish: PublishConfig{
			MaxConcurrent:  8,
			TimeoutMinutes: 5,
		},
		Issues: IssueConfig{
			Provider: "github",
			Repo:     "prplanit/release-engineering",
			Notify:   []string{"@sofmeright", "@prplanit-ops"},
		},
	}
}
