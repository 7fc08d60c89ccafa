package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/promptchain/pkg/adapter"
)

func TestKnowledgeBaseSearch(t *testing.T) {
	kb := NewKnowledgeBase([]KBRecord{
		{Question: "What is the return policy?", Answer: "30 days."},
		{Question: "Do you ship internationally?", Answer: "Yes, 50+ countries."},
	})

	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"exact question", "What is the return policy?", "30 days."},
		{"question fragment", "return policy", "30 days."},
		{"longer phrasing containing a record", "Hey, do you ship internationally? Asking for a friend", "Yes, 50+ countries."},
		{"case insensitive", "WHAT IS THE RETURN POLICY?", "30 days."},
		{"no match", "What is your favorite color?", NotFoundAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kb.Search(tt.question).Answer)
		})
	}
}

func TestLoadKnowledgeBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	data := `{"records": [{"question": "What is the return policy?", "answer": "30 days."}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	assert.Equal(t, "30 days.", kb.Search("return policy").Answer)

	_, err = LoadKnowledgeBase(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestKnowledgeBaseToolRequiresQuestion(t *testing.T) {
	kb := NewKnowledgeBase(nil)
	tool := kb.Tool()

	_, err := tool.Call(context.Background(), map[string]any{})
	assert.Error(t, err)

	result, err := tool.Call(context.Background(), map[string]any{"question": "anything"})
	require.NoError(t, err)
	assert.Equal(t, NotFoundAnswer, result["answer"])
}

func TestGetWeatherDeterministic(t *testing.T) {
	first := GetWeather(48.8566, 2.3522)
	second := GetWeather(48.8566, 2.3522)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "temperature_2m")
	assert.Contains(t, first, "wind_speed_10m")
	assert.Contains(t, first, "conditions")
}

func TestWeatherToolValidatesCoordinates(t *testing.T) {
	tool := WeatherTool()

	_, err := tool.Call(context.Background(), map[string]any{"latitude": 48.85})
	assert.Error(t, err)

	result, err := tool.Call(context.Background(), map[string]any{"latitude": 48.85, "longitude": 2.35})
	require.NoError(t, err)
	assert.NotEmpty(t, result["conditions"])
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	registry.Register(WeatherTool())

	defs := registry.Defs()
	require.Len(t, defs, 1)
	assert.Equal(t, "get_weather", defs[0].Name)

	result, err := registry.Dispatch(context.Background(), adapter.ToolCall{
		Name: "get_weather",
		Args: map[string]any{"latitude": 48.85, "longitude": 2.35},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result["conditions"])

	_, err = registry.Dispatch(context.Background(), adapter.ToolCall{Name: "unknown_tool"})
	assert.Error(t, err)
}
