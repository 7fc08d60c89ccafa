// Package gate implements boolean checkpoints that halt a pipeline without
// signaling an error.
package gate

import (
	"fmt"

	"github.com/zen-systems/promptchain/pkg/pipeline"
)

// Predicate inspects a stage result and reports whether the flow may
// proceed, plus a human-readable account of the evidence.
type Predicate func(*pipeline.Result) (bool, string)

// Decision is the immutable outcome of a gate check.
type Decision struct {
	Passed   bool   `json:"passed"`
	Evidence string `json:"evidence"`
}

// Check evaluates the predicate against the stage result. A failed stage
// never passes a gate.
func Check(result *pipeline.Result, pred Predicate) Decision {
	if !result.OK() {
		return Decision{Passed: false, Evidence: result.Failure.Error()}
	}
	passed, evidence := pred(result)
	return Decision{Passed: passed, Evidence: evidence}
}

// MinConfidence passes when the named numeric field is strictly greater
// than the threshold. The boundary value itself fails.
func MinConfidence(field string, threshold float64) Predicate {
	return func(r *pipeline.Result) (bool, string) {
		score := r.Record.Float(field)
		return score > threshold, fmt.Sprintf("%s=%.2f threshold=%.2f", field, score, threshold)
	}
}

// FlagSet passes when the named boolean field is true.
func FlagSet(field string) Predicate {
	return func(r *pipeline.Result) (bool, string) {
		set := r.Record.Bool(field)
		return set, fmt.Sprintf("%s=%t", field, set)
	}
}

// All passes only when every predicate passes; evidence is joined.
func All(preds ...Predicate) Predicate {
	return func(r *pipeline.Result) (bool, string) {
		passed := true
		evidence := ""
		for i, pred := range preds {
			ok, ev := pred(r)
			if i > 0 {
				evidence += " AND "
			}
			evidence += ev
			if !ok {
				passed = false
			}
		}
		return passed, evidence
	}
}
