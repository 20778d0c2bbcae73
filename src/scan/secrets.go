// Package scan gates publishing on a secret sweep of artifact files.
// An artifact that carries a credential must never land on a feed other
// people can read; hits withhold the artifact from upload.
package scan

import (
	"os"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Finding is one detected secret in an artifact file.
type Finding struct {
	Path        string
	Line        int
	RuleID      string
	Description string
}

// SecretScanner wraps a gitleaks detector with its default ruleset.
type SecretScanner struct {
	detector *detect.Detector
}

// NewSecretScanner builds a scanner with the default gitleaks config.
func NewSecretScanner() (*SecretScanner, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	return &SecretScanner{detector: d}, nil
}

// ScanFile runs secret detection over one artifact file.
func (s *SecretScanner) ScanFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	hits := s.detector.DetectBytes(data)
	if len(hits) == 0 {
		return nil, nil
	}

	findings := make([]Finding, 0, len(hits))
	for _, h := range hits {
		findings = append(findings, Finding{
			Path:        path,
			Line:        h.StartLine + 1, // gitleaks is 0-indexed
			RuleID:      h.RuleID,
			Description: h.Description,
		})
	}
	return findings, nil
}
