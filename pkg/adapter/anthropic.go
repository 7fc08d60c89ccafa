package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zen-systems/promptchain/pkg/artifact"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// AnthropicAdapter implements the Adapter interface for Claude models.
type AnthropicAdapter struct {
	client anthropic.Client
}

// NewAnthropicAdapter creates a new Anthropic adapter.
func NewAnthropicAdapter(apiKey string) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Models returns the list of supported Claude models.
func (a *AnthropicAdapter) Models() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-opus-4-20250514",
	}
}

// Generate sends a request to Claude and returns the response.
func (a *AnthropicAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}
	if req.FollowUp != nil {
		resultJSON, err := json.Marshal(req.FollowUp.Result)
		if err != nil {
			return nil, fmt.Errorf("encode tool result: %w", err)
		}
		messages = append(messages,
			anthropic.NewAssistantMessage(anthropic.NewToolUseBlock(
				req.FollowUp.Call.ID,
				req.FollowUp.Call.Args,
				req.FollowUp.Call.Name,
			)),
			anthropic.NewUserMessage(anthropic.NewToolResultBlock(
				req.FollowUp.Call.ID,
				string(resultJSON),
				false,
			)),
		)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: 4096,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropicTools(req.Tools)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &AdapterError{Err: fmt.Errorf("anthropic API error: %w", err)}
	}

	var content string
	var toolCall *ToolCall
	for _, blockUnion := range resp.Content {
		switch block := blockUnion.AsAny().(type) {
		case anthropic.TextBlock:
			content += block.Text
		case anthropic.ToolUseBlock:
			if toolCall != nil {
				continue
			}
			var args map[string]any
			if data, err := json.Marshal(block.Input); err == nil {
				_ = json.Unmarshal(data, &args)
			}
			toolCall = &ToolCall{ID: block.ID, Name: block.Name, Args: args}
		}
	}

	return &Response{
		Artifact: artifact.New(content, a.Name(), req.Model, req.Prompt),
		ToolCall: toolCall,
		Usage: &Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

func anthropicTools(tools []ToolDef) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: toolProperties(tool.Parameters),
				Required:   toolRequired(tool.Parameters),
			},
		}
		params = append(params, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return params
}

func toolProperties(shape *schema.Shape) map[string]any {
	if shape == nil {
		return map[string]any{}
	}
	var doc struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal([]byte(shape.PromptSchema()), &doc); err != nil {
		return map[string]any{}
	}
	return doc.Properties
}

func toolRequired(shape *schema.Shape) []string {
	if shape == nil {
		return nil
	}
	return shape.RequiredFields()
}
