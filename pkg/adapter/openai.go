package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zen-systems/promptchain/pkg/artifact"
)

// OpenAIAdapter implements the Adapter interface for OpenAI models.
type OpenAIAdapter struct {
	client openai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Models returns the list of supported OpenAI models.
func (a *OpenAIAdapter) Models() []string {
	return []string{
		"gpt-5.2-instant",
		"gpt-5.2-thinking",
		"gpt-5.2-pro",
	}
}

// Generate sends a request to OpenAI and returns the response.
func (a *OpenAIAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	if req.FollowUp != nil {
		argsJSON, err := json.Marshal(req.FollowUp.Call.Args)
		if err != nil {
			return nil, fmt.Errorf("encode tool args: %w", err)
		}
		resultJSON, err := json.Marshal(req.FollowUp.Result)
		if err != nil {
			return nil, fmt.Errorf("encode tool result: %w", err)
		}
		assistant := openai.ChatCompletionAssistantMessageParam{
			ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
				ID: req.FollowUp.Call.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      req.FollowUp.Call.Name,
					Arguments: string(argsJSON),
				},
			}},
		}
		messages = append(messages,
			openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant},
			openai.ToolMessage(string(resultJSON), req.FollowUp.Call.ID),
		)
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.Model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(4096),
	}
	if len(req.Tools) > 0 {
		params.Tools = openaiTools(req.Tools)
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &AdapterError{Err: fmt.Errorf("openai API error: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &AdapterError{Err: fmt.Errorf("openai returned no choices")}
	}

	message := resp.Choices[0].Message

	var toolCall *ToolCall
	if len(message.ToolCalls) > 0 {
		call := message.ToolCalls[0]
		var args map[string]any
		_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
		toolCall = &ToolCall{ID: call.ID, Name: call.Function.Name, Args: args}
	}

	return &Response{
		Artifact: artifact.New(message.Content, a.Name(), req.Model, req.Prompt),
		ToolCall: toolCall,
		Usage: &Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func openaiTools(tools []ToolDef) []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		params = append(params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": toolProperties(tool.Parameters),
					"required":   toolRequired(tool.Parameters),
				},
			},
		})
	}
	return params
}
