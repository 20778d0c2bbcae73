package publish

import "fmt"

// OutcomeKind classifies what happened to one artifact's upload.
type OutcomeKind int

const (
	// OutcomeCreated: the remote object was created or overwritten.
	OutcomeCreated OutcomeKind = iota
	// OutcomeSkippedIdentical: the destination already held byte-identical
	// content and the policy allows passing on identical duplicates.
	OutcomeSkippedIdentical
	// OutcomeFailed: the upload did not take effect; Reason says why.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeSkippedIdentical:
		return "skipped-identical"
	default:
		return "failed"
	}
}

// FailureReason categorizes a failed upload.
type FailureReason string

const (
	ReasonAlreadyExists   FailureReason = "already-exists"
	ReasonContentMismatch FailureReason = "content-mismatch"
	ReasonTransport       FailureReason = "transport"
	ReasonTimeout         FailureReason = "timeout"
	ReasonSecretDetected  FailureReason = "secret-detected"
)

// Outcome is the per-artifact result of an upload attempt. Every artifact
// submitted to the engine yields exactly one Outcome.
type Outcome struct {
	Kind   OutcomeKind
	Reason FailureReason // set only when Kind == OutcomeFailed
	Detail string        // human-readable failure detail
}

// Created returns a successful create/overwrite outcome.
func Created() Outcome {
	return Outcome{Kind: OutcomeCreated}
}

// SkippedIdentical returns the idempotent-skip outcome.
func SkippedIdentical() Outcome {
	return Outcome{Kind: OutcomeSkippedIdentical}
}

// Failed returns a failure outcome with a categorized reason.
func Failed(reason FailureReason, detail string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason, Detail: detail}
}

// Succeeded reports whether the artifact ended up present on the feed
// (created, overwritten, or identical content already there).
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeCreated || o.Kind == OutcomeSkippedIdentical
}

func (o Outcome) String() string {
	if o.Kind != OutcomeFailed {
		return o.Kind.String()
	}
	if o.Detail != "" {
		return fmt.Sprintf("failed (%s): %s", o.Reason, o.Detail)
	}
	return fmt.Sprintf("failed (%s)", o.Reason)
}
