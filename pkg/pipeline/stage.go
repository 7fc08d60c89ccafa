package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/promptchain/pkg/adapter"
	"github.com/zen-systems/promptchain/pkg/prompt"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// Stage is one unit of work: build request, call the adapter, validate the
// response. A stage has no knowledge of its position in a larger flow.
type Stage struct {
	Name    string
	System  string
	Shape   *schema.Shape
	Adapter adapter.Adapter
	Model   string

	// WithDate prepends a "Today is ..." line to the system instruction
	// so the model can resolve relative dates.
	WithDate bool

	// Now supplies the reference time for WithDate. Defaults to time.Now.
	Now func() time.Time

	// Observe, when set, receives every Result the stage produces. It is
	// called from whichever goroutine runs the stage.
	Observe func(*Result)

	Logger zerolog.Logger
}

// Run executes the stage over the input.
func (s *Stage) Run(ctx context.Context, input string) *Result {
	system := s.System
	if s.WithDate {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		system = prompt.DateContext(now()) + "\n" + system
	}

	req := adapter.Request{
		Model:  s.model(),
		System: system,
		Prompt: prompt.Build("", input, s.Shape),
	}

	s.Logger.Debug().Str("stage", s.Name).Str("adapter", s.Adapter.Name()).Str("model", req.Model).Msg("running stage")

	resp, err := s.Adapter.Generate(ctx, req)
	if err != nil {
		s.Logger.Warn().Str("stage", s.Name).Err(err).Msg("provider call failed")
		return s.finish(Fail(s.Name, ProviderError, "", "adapter %s: %v", s.Adapter.Name(), err))
	}

	record, err := schema.Validate(resp.Text(), s.Shape)
	if err != nil {
		s.Logger.Warn().Str("stage", s.Name).Err(err).Msg("response failed validation")
		return s.finish(Fail(s.Name, MalformedOutput, resp.Text(), "%v", err))
	}

	s.Logger.Debug().Str("stage", s.Name).Msg("stage complete")
	return s.finish(Succeed(s.Name, record, resp.Artifact))
}

func (s *Stage) finish(res *Result) *Result {
	if s.Observe != nil {
		s.Observe(res)
	}
	return res
}

func (s *Stage) model() string {
	if s.Model != "" {
		return s.Model
	}
	if models := s.Adapter.Models(); len(models) > 0 {
		return models[0]
	}
	return ""
}
