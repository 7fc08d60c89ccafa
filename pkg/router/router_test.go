package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/promptchain/pkg/adapter"
	"github.com/zen-systems/promptchain/pkg/pipeline"
	"github.com/zen-systems/promptchain/pkg/schema"
)

var classifyShape = &schema.Shape{
	Name: "CalendarRequestType",
	Fields: []schema.Field{
		{Name: "request_type", Kind: schema.KindEnum, Required: true, Enum: []string{"new_event", "modify_event", "other"}},
		{Name: "confidence_score", Kind: schema.KindNumber, Required: true, Min: schema.Bound(0), Max: schema.Bound(1)},
		{Name: "description", Kind: schema.KindString, Required: true},
	},
}

func classification(requestType string, confidence float64) string {
	return fmt.Sprintf(`{"request_type": %q, "confidence_score": %v, "description": "cleaned request"}`, requestType, confidence)
}

func newRouter(mock *adapter.MockAdapter, threshold float64) *Router {
	stage := &pipeline.Stage{Name: "classify_request", Shape: classifyShape, Adapter: mock}
	return New(stage, threshold, WithCatchAll("other"))
}

func TestRouteDispatchesToHandler(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("", classification("new_event", 0.75))
	r := newRouter(mock, 0.7)

	var got string
	r.Register("new_event", HandlerFunc(func(_ context.Context, description string) *pipeline.Result {
		got = description
		return pipeline.Succeed("handle_new_event", schema.Record{"success": true}, nil)
	}))

	decision := r.Route(context.Background(), "Schedule a meeting")
	assert.Equal(t, StateRouted, decision.State)
	require.NotNil(t, decision.Category)
	assert.Equal(t, "new_event", decision.Category.Type)
	assert.Equal(t, "cleaned request", got)
	require.True(t, decision.Result.OK())
}

func TestRouteConfidenceBoundaryPasses(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("", classification("new_event", 0.7))
	r := newRouter(mock, 0.7)
	r.Register("new_event", HandlerFunc(func(context.Context, string) *pipeline.Result {
		return pipeline.Succeed("handle_new_event", schema.Record{}, nil)
	}))

	decision := r.Route(context.Background(), "Schedule a meeting")
	assert.Equal(t, StateRouted, decision.State)
}

func TestRouteLowConfidenceUnsupported(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("", classification("new_event", 0.65))
	r := newRouter(mock, 0.7)

	handlerCalled := false
	r.Register("new_event", HandlerFunc(func(context.Context, string) *pipeline.Result {
		handlerCalled = true
		return nil
	}))

	decision := r.Route(context.Background(), "maybe a meeting?")
	assert.Equal(t, StateUnsupported, decision.State)
	assert.Contains(t, decision.Reason, "confidence")
	assert.False(t, handlerCalled)
	require.NotNil(t, decision.Category)
	assert.Equal(t, 0.65, decision.Category.Confidence)
}

func TestRouteCatchAllUnsupported(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("", classification("other", 0.95))
	r := newRouter(mock, 0.7)

	decision := r.Route(context.Background(), "tell me a joke")
	assert.Equal(t, StateUnsupported, decision.State)
	assert.Contains(t, decision.Reason, "catch-all")
}

func TestRouteUnregisteredCategoryUnsupported(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("", classification("modify_event", 0.9))
	r := newRouter(mock, 0.7)

	decision := r.Route(context.Background(), "move my 1:1")
	assert.Equal(t, StateUnsupported, decision.State)
	assert.Contains(t, decision.Reason, "modify_event")
}

func TestRouteClassificationFailureUnsupported(t *testing.T) {
	mock := adapter.NewMockAdapter().Fail("", errors.New("timeout"))
	r := newRouter(mock, 0.7)

	decision := r.Route(context.Background(), "Schedule a meeting")
	assert.Equal(t, StateUnsupported, decision.State)
	assert.Contains(t, decision.Reason, "provider_error")
}
