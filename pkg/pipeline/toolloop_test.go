package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/promptchain/pkg/adapter"
)

type dispatcherFunc func(ctx context.Context, call adapter.ToolCall) (map[string]any, error)

func (f dispatcherFunc) Dispatch(ctx context.Context, call adapter.ToolCall) (map[string]any, error) {
	return f(ctx, call)
}

func TestRunWithToolsRoundTrip(t *testing.T) {
	mock := adapter.NewMockAdapter().
		Respond("followup:get_weather", "It is 22.5C and sunny.").
		RespondCall("weather in Paris", adapter.ToolCall{
			ID:   "call-1",
			Name: "get_weather",
			Args: map[string]any{"latitude": 48.85, "longitude": 2.35},
		})

	var dispatched *adapter.ToolCall
	dispatcher := dispatcherFunc(func(_ context.Context, call adapter.ToolCall) (map[string]any, error) {
		dispatched = &call
		return map[string]any{"temperature_2m": 22.5}, nil
	})

	req := adapter.Request{Prompt: "What's the weather in Paris?"}
	resp, err := RunWithTools(context.Background(), mock, req, dispatcher, 0)
	require.NoError(t, err)
	assert.Equal(t, "It is 22.5C and sunny.", resp.Text())

	require.NotNil(t, dispatched)
	assert.Equal(t, "get_weather", dispatched.Name)
	assert.Equal(t, 48.85, dispatched.Args["latitude"])

	// The follow-up turn must carry the call and its result back.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	require.NotNil(t, reqs[1].FollowUp)
	assert.Equal(t, "call-1", reqs[1].FollowUp.Call.ID)
	assert.Equal(t, 22.5, reqs[1].FollowUp.Result["temperature_2m"])
}

func TestRunWithToolsTextOnlyPassesThrough(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("", "plain answer")

	resp, err := RunWithTools(context.Background(), mock, adapter.Request{Prompt: "hi"}, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, "plain answer", resp.Text())
}

func TestRunWithToolsDispatcherError(t *testing.T) {
	mock := adapter.NewMockAdapter().
		RespondCall("", adapter.ToolCall{ID: "call-1", Name: "search_kb", Args: map[string]any{}})

	dispatcher := dispatcherFunc(func(context.Context, adapter.ToolCall) (map[string]any, error) {
		return nil, errors.New("kb unavailable")
	})

	_, err := RunWithTools(context.Background(), mock, adapter.Request{Prompt: "q"}, dispatcher, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search_kb")
}

func TestRunWithToolsNoDispatcher(t *testing.T) {
	mock := adapter.NewMockAdapter().
		RespondCall("", adapter.ToolCall{ID: "call-1", Name: "search_kb", Args: map[string]any{}})

	_, err := RunWithTools(context.Background(), mock, adapter.Request{Prompt: "q"}, nil, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dispatcher")
}

func TestRunWithToolsTurnLimit(t *testing.T) {
	// Every turn asks for another tool call; the loop must stop.
	mock := adapter.NewMockAdapter().
		RespondCall("", adapter.ToolCall{ID: "call-1", Name: "get_weather", Args: map[string]any{}})

	dispatcher := dispatcherFunc(func(context.Context, adapter.ToolCall) (map[string]any, error) {
		return map[string]any{}, nil
	})

	_, err := RunWithTools(context.Background(), mock, adapter.Request{Prompt: "q"}, dispatcher, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 tool turns")
	assert.Len(t, mock.Requests(), 2)
}
