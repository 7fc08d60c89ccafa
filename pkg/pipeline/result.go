package pipeline

import (
	"fmt"

	"github.com/zen-systems/promptchain/pkg/artifact"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// FailureKind classifies why a stage could not produce a typed record.
type FailureKind string

const (
	// MalformedOutput means the response was unparseable or failed shape
	// validation.
	MalformedOutput FailureKind = "malformed_output"

	// ProviderError means the transport or provider call failed.
	ProviderError FailureKind = "provider_error"

	// GateRejected means a gate halted the flow. A normal outcome, not an
	// operational error.
	GateRejected FailureKind = "gate_rejected"

	// Unsupported means no handler is registered for the classified
	// category, or the catch-all category was selected.
	Unsupported FailureKind = "unsupported"
)

// Failure carries the reason a stage failed plus the raw response for
// observability.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
	Raw    string      `json:"raw,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// Result is the outcome of one stage run. Exactly one of Record or Failure
// is set. Immutable once produced.
type Result struct {
	Stage    string             `json:"stage"`
	Record   schema.Record      `json:"record,omitempty"`
	Artifact *artifact.Artifact `json:"artifact,omitempty"`
	Failure  *Failure           `json:"failure,omitempty"`
}

// OK reports whether the stage produced a validated record.
func (r *Result) OK() bool {
	return r != nil && r.Failure == nil
}

// Decode unmarshals the validated record into a typed struct.
func (r *Result) Decode(out any) error {
	if !r.OK() {
		return fmt.Errorf("stage %s has no record: %w", r.Stage, r.Failure)
	}
	return r.Record.Decode(out)
}

// Succeed creates a success result.
func Succeed(stage string, record schema.Record, art *artifact.Artifact) *Result {
	return &Result{Stage: stage, Record: record, Artifact: art}
}

// Fail creates a failure result.
func Fail(stage string, kind FailureKind, raw string, format string, args ...any) *Result {
	return &Result{
		Stage: stage,
		Failure: &Failure{
			Kind:   kind,
			Reason: fmt.Sprintf(format, args...),
			Raw:    raw,
		},
	}
}
