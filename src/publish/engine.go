package publish

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/sofmeright/feedfreight/src/feed"
	"github.com/sofmeright/feedfreight/src/logging"
	"github.com/sofmeright/feedfreight/src/runlog"
)

// Engine uploads a batch of artifacts to the feed with bounded concurrency.
// One engine instance serves both artifact classes; the per-class
// differences live on Artifact.
type Engine struct {
	Transport feed.Transport
	FeedURL   string
	Policy    PushPolicy
	Log       zerolog.Logger
	Errors    *runlog.Log
}

// Publish uploads every artifact in the batch and returns one outcome per
// artifact key. A failing upload never cancels its siblings: the batch is
// always drained, and the returned map is complete regardless of how many
// individual uploads failed. Completion order across the batch is
// unspecified.
func (e *Engine) Publish(ctx context.Context, artifacts []Artifact, baseDir string) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(artifacts))
	if len(artifacts) == 0 {
		return outcomes
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := semaphore.NewWeighted(int64(e.Policy.MaxConcurrentUploads))

	for _, a := range artifacts {
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				// Caller canceled before this upload started. The artifact
				// still gets its outcome.
				e.record(&mu, outcomes, a, Failed(ReasonTransport, err.Error()))
				return
			}
			defer sem.Release(1)

			e.record(&mu, outcomes, a, e.uploadOne(ctx, a, baseDir))
		}()
	}

	wg.Wait()
	return outcomes
}

// record stores the outcome (write-once per key) and funnels failures into
// the run log.
func (e *Engine) record(mu *sync.Mutex, outcomes map[string]Outcome, a Artifact, out Outcome) {
	mu.Lock()
	if _, dup := outcomes[a.Key()]; !dup {
		outcomes[a.Key()] = out
	}
	mu.Unlock()

	if out.Kind == OutcomeFailed {
		e.Errors.Errorf("uploading %s: %s", a.Key(), out)
		return
	}
	e.Log.Info().Str("artifact", a.Key()).Str("outcome", out.Kind.String()).Msg("published")
}

// uploadOne performs a single upload under the per-upload timeout and
// classifies the result per the push policy.
func (e *Engine) uploadOne(ctx context.Context, a Artifact, baseDir string) Outcome {
	upCtx, cancel := context.WithTimeout(ctx, e.Policy.PerUploadTimeout)
	defer cancel()

	local := a.ResolveLocal(baseDir)
	addr := a.RemoteAddress(e.FeedURL)

	e.Log.Debug().Str("artifact", a.Key()).Str("dest", logging.Redact(addr)).Msg("uploading")

	err := e.Transport.Upload(upCtx, local, addr, e.Policy.AllowOverwrite)
	switch {
	case err == nil:
		return Created()
	case errors.Is(err, feed.ErrExists):
		if !e.Policy.PassIfIdenticalExisting {
			return Failed(ReasonAlreadyExists, "destination already exists")
		}
		return e.compareExisting(upCtx, local, addr)
	case errors.Is(err, context.DeadlineExceeded):
		return Failed(ReasonTimeout, fmt.Sprintf("upload exceeded %s", e.Policy.PerUploadTimeout))
	default:
		return Failed(ReasonTransport, err.Error())
	}
}

// compareExisting decides between skipped-identical and content-mismatch
// for an artifact whose destination is already occupied.
func (e *Engine) compareExisting(ctx context.Context, localPath, remoteAddress string) Outcome {
	remote, err := e.Transport.Fetch(ctx, remoteAddress)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Failed(ReasonTimeout, fmt.Sprintf("comparison exceeded %s", e.Policy.PerUploadTimeout))
		}
		return Failed(ReasonTransport, fmt.Sprintf("fetching existing content: %v", err))
	}

	local, err := os.ReadFile(localPath)
	if err != nil {
		return Failed(ReasonTransport, fmt.Sprintf("reading %s: %v", localPath, err))
	}

	if sha256.Sum256(remote) == sha256.Sum256(local) {
		return SkippedIdentical()
	}
	return Failed(ReasonContentMismatch, "existing remote content differs")
}
