package publish

import (
	"fmt"
	"time"
)

// PushPolicy controls how the upload engine treats destinations that
// already exist, and bounds its concurrency and per-upload duration.
//
// When AllowOverwrite is set, PassIfIdenticalExisting is irrelevant: every
// upload overwrites unconditionally. When both flags are clear, any
// pre-existing destination is a failure.
type PushPolicy struct {
	AllowOverwrite          bool
	PassIfIdenticalExisting bool
	MaxConcurrentUploads    int
	PerUploadTimeout        time.Duration
}

// Validate rejects non-positive concurrency or timeout values.
func (p PushPolicy) Validate() error {
	if p.MaxConcurrentUploads <= 0 {
		return fmt.Errorf("max concurrent uploads must be positive, got %d", p.MaxConcurrentUploads)
	}
	if p.PerUploadTimeout <= 0 {
		return fmt.Errorf("per-upload timeout must be positive, got %s", p.PerUploadTimeout)
	}
	return nil
}
