package pipeline

import (
	"context"
	"fmt"

	"github.com/zen-systems/promptchain/pkg/adapter"
)

// Dispatcher executes a tool the model asked for and returns its result.
type Dispatcher interface {
	Dispatch(ctx context.Context, call adapter.ToolCall) (map[string]any, error)
}

// DefaultMaxToolTurns bounds the invoke/dispatch loop.
const DefaultMaxToolTurns = 3

// RunWithTools drives the tool round trip: invoke the model, and whenever it
// answers with a tool-invocation request, dispatch the tool and resubmit the
// result as a follow-up turn until the model produces text.
func RunWithTools(ctx context.Context, ad adapter.Adapter, req adapter.Request, dispatcher Dispatcher, maxTurns int) (*adapter.Response, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxToolTurns
	}

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := ad.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		if resp.ToolCall == nil {
			return resp, nil
		}
		if dispatcher == nil {
			return nil, fmt.Errorf("model requested tool %s but no dispatcher configured", resp.ToolCall.Name)
		}

		result, err := dispatcher.Dispatch(ctx, *resp.ToolCall)
		if err != nil {
			return nil, fmt.Errorf("dispatch tool %s: %w", resp.ToolCall.Name, err)
		}

		req.FollowUp = &adapter.ToolExchange{Call: *resp.ToolCall, Result: result}
	}

	return nil, fmt.Errorf("model did not produce text within %d tool turns", maxTurns)
}
