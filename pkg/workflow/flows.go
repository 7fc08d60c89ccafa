// Package workflow composes stages, gates, routers, and guardrail groups
// into the end-to-end calendar request flows.
package workflow

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/promptchain/pkg/adapter"
	"github.com/zen-systems/promptchain/pkg/gate"
	"github.com/zen-systems/promptchain/pkg/pipeline"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// Status is the terminal state of a flow.
type Status string

const (
	// StatusCompleted means the flow produced its final typed payload.
	StatusCompleted Status = "completed"

	// StatusNotApplicable means a gate or router halted the flow. This is
	// an expected control path, not an error.
	StatusNotApplicable Status = "not_applicable"

	// StatusFailed means a stage failed with an unrecovered error.
	StatusFailed Status = "failed"
)

// Flows orchestrates the calendar workflows over one adapter. All state is
// per-call; a Flows value is safe for concurrent use.
type Flows struct {
	adapter adapter.Adapter
	model   string

	chainThreshold float64
	routeThreshold float64
	guardThreshold float64

	now      func() time.Time
	logger   zerolog.Logger
	observer Observer
}

// Observer receives every stage result and gate decision as a flow
// executes. Guardrail branches run concurrently, so ObserveStage must be
// safe for concurrent calls.
type Observer interface {
	ObserveStage(res *pipeline.Result)
	ObserveGate(stage string, decision gate.Decision)
}

// Option configures Flows.
type Option func(*Flows)

// WithModel overrides the adapter's default model.
func WithModel(model string) Option {
	return func(f *Flows) { f.model = model }
}

// WithLogger sets the flow logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Flows) { f.logger = logger }
}

// WithNow fixes the reference time used for relative-date resolution.
func WithNow(now func() time.Time) Option {
	return func(f *Flows) { f.now = now }
}

// WithObserver streams per-stage results and gate decisions to obs.
func WithObserver(obs Observer) Option {
	return func(f *Flows) { f.observer = obs }
}

// WithThresholds overrides the gate thresholds for the chain, routing, and
// guardrail flows.
func WithThresholds(chain, route, guard float64) Option {
	return func(f *Flows) {
		f.chainThreshold = chain
		f.routeThreshold = route
		f.guardThreshold = guard
	}
}

// New creates the flow orchestrator with reference thresholds: 0.6 for the
// chain gate, 0.7 for routing and guardrails.
func New(ad adapter.Adapter, opts ...Option) *Flows {
	f := &Flows{
		adapter:        ad,
		chainThreshold: 0.6,
		routeThreshold: 0.7,
		guardThreshold: 0.7,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flows) stage(name, system string, shape *schema.Shape, withDate bool) *pipeline.Stage {
	s := &pipeline.Stage{
		Name:     name,
		System:   system,
		Shape:    shape,
		Adapter:  f.adapter,
		Model:    f.model,
		WithDate: withDate,
		Now:      f.now,
		Logger:   f.logger,
	}
	if f.observer != nil {
		s.Observe = f.observer.ObserveStage
	}
	return s
}

func (f *Flows) observeGate(stage string, decision gate.Decision) {
	if f.observer != nil {
		f.observer.ObserveGate(stage, decision)
	}
}
