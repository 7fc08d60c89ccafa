// Package guardrail runs independent validation stages concurrently over
// the same input and combines their outcomes with an acceptance rule.
package guardrail

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/promptchain/pkg/gate"
	"github.com/zen-systems/promptchain/pkg/pipeline"
)

// Branch is one independently executed validation stage.
type Branch struct {
	Name  string
	Stage *pipeline.Stage

	// Pass is the branch's individual success predicate.
	Pass gate.Predicate

	// Fallback produces the conservative failure-biased record used when
	// the branch's provider call errors, so the combinator still has a
	// value to reason about. Optional.
	Fallback func() *pipeline.Result
}

// BranchReport carries one branch's raw evidence in the aggregate outcome.
type BranchReport struct {
	Result   *pipeline.Result `json:"result"`
	Passed   bool             `json:"passed"`
	Evidence string           `json:"evidence"`
	Degraded bool             `json:"degraded"`

	// Fault is the stage failure that forced the fallback substitution.
	// Set only when Degraded.
	Fault *pipeline.Failure `json:"fault,omitempty"`
}

// Outcome aggregates every branch's result plus the derived acceptance.
type Outcome struct {
	Accepted  bool                    `json:"accepted"`
	Branches  map[string]BranchReport `json:"branches"`
	RiskFlags []string                `json:"risk_flags,omitempty"`
}

// Combinator reduces per-branch reports to one acceptance decision.
type Combinator func(map[string]BranchReport) bool

// AllPass accepts iff every branch's individual predicate held.
func AllPass(reports map[string]BranchReport) bool {
	for _, report := range reports {
		if !report.Passed {
			return false
		}
	}
	return true
}

// RunAll launches every branch concurrently against the same input and
// joins them all before applying the combinator. A branch error never
// aborts its siblings and never cancels the group; the failing branch
// resolves to its conservative fallback instead.
func RunAll(ctx context.Context, input string, branches []Branch, combine Combinator) *Outcome {
	if combine == nil {
		combine = AllPass
	}

	results := make([]*pipeline.Result, len(branches))
	faults := make([]*pipeline.Failure, len(branches))

	g, gctx := errgroup.WithContext(ctx)
	for i, branch := range branches {
		g.Go(func() error {
			res := branch.Stage.Run(gctx, input)
			if !res.OK() {
				faults[i] = res.Failure
				if branch.Fallback != nil {
					res = branch.Fallback()
				}
			}
			results[i] = res
			// Branch failures are downgraded, never propagated, so the
			// group always joins all branches.
			return nil
		})
	}
	_ = g.Wait()

	reports := make(map[string]BranchReport, len(branches))
	var riskFlags []string
	for i, branch := range branches {
		res := results[i]
		degraded := faults[i] != nil
		passed := false
		evidence := ""
		if res.OK() {
			passed, evidence = branch.Pass(res)
		} else {
			evidence = res.Failure.Error()
		}
		if degraded {
			passed = false
		}
		reports[branch.Name] = BranchReport{
			Result:   res,
			Passed:   passed,
			Evidence: evidence,
			Degraded: degraded,
			Fault:    faults[i],
		}
		if res.Record != nil {
			riskFlags = append(riskFlags, res.Record.Strings("risk_flags")...)
		}
	}

	return &Outcome{
		Accepted:  combine(reports),
		Branches:  reports,
		RiskFlags: riskFlags,
	}
}
