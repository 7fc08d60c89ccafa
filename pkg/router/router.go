// Package router classifies input into a closed set of categories and
// dispatches each category to its registered handler.
package router

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zen-systems/promptchain/pkg/pipeline"
)

// State tracks where a request is in the routing lifecycle.
type State string

const (
	StateUnclassified State = "unclassified"
	StateRouted       State = "routed"
	StateUnsupported  State = "unsupported"
)

// Category is the classification stage's verdict: one of a fixed closed
// enumeration plus confidence and a cleaned restatement of the input.
type Category struct {
	Type        string  `json:"request_type"`
	Confidence  float64 `json:"confidence_score"`
	Description string  `json:"description"`
}

// Handler produces the final structured response for one category.
type Handler interface {
	Handle(ctx context.Context, description string) *pipeline.Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, description string) *pipeline.Result

func (f HandlerFunc) Handle(ctx context.Context, description string) *pipeline.Result {
	return f(ctx, description)
}

// Decision captures the routing outcome: the classified category, the final
// state, and the handler's result when routed.
type Decision struct {
	State    State            `json:"state"`
	Category *Category        `json:"category,omitempty"`
	Result   *pipeline.Result `json:"result,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}

// Router runs a classification stage and dispatches to per-category
// handlers. Adding a category means registering a handler, not changing
// the router's control flow.
type Router struct {
	classify  *pipeline.Stage
	threshold float64
	catchAll  string
	handlers  map[string]Handler
	logger    zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithCatchAll names the category that always routes to Unsupported.
func WithCatchAll(category string) Option {
	return func(r *Router) { r.catchAll = category }
}

// WithLogger sets the router's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// New creates a router around a classification stage. Confidence strictly
// below the threshold routes to Unsupported; the boundary value passes.
func New(classify *pipeline.Stage, threshold float64, opts ...Option) *Router {
	r := &Router{
		classify:  classify,
		threshold: threshold,
		catchAll:  "other",
		handlers:  make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a category to its handler. Each category maps to exactly
// one handler; later registrations replace earlier ones.
func (r *Router) Register(category string, handler Handler) {
	r.handlers[category] = handler
}

// Route classifies the input and dispatches to the matching handler.
// Classification failure, insufficient confidence, the catch-all category,
// and unregistered categories all end in Unsupported, never an error.
func (r *Router) Route(ctx context.Context, input string) *Decision {
	res := r.classify.Run(ctx, input)
	if !res.OK() {
		r.logger.Warn().Str("reason", res.Failure.Reason).Msg("classification failed")
		return &Decision{State: StateUnsupported, Reason: res.Failure.Error()}
	}

	var category Category
	if err := res.Decode(&category); err != nil {
		return &Decision{State: StateUnsupported, Reason: err.Error()}
	}

	r.logger.Info().
		Str("category", category.Type).
		Float64("confidence", category.Confidence).
		Msg("request classified")

	if category.Confidence < r.threshold {
		return &Decision{
			State:    StateUnsupported,
			Category: &category,
			Reason:   "confidence below threshold",
		}
	}
	if category.Type == r.catchAll {
		return &Decision{
			State:    StateUnsupported,
			Category: &category,
			Reason:   "catch-all category",
		}
	}

	handler, ok := r.handlers[category.Type]
	if !ok {
		return &Decision{
			State:    StateUnsupported,
			Category: &category,
			Reason:   "no handler registered for category " + category.Type,
		}
	}

	result := handler.Handle(ctx, category.Description)
	return &Decision{State: StateRouted, Category: &category, Result: result}
}
