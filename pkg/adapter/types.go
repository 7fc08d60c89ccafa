package adapter

import (
	"github.com/zen-systems/promptchain/pkg/artifact"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// Request describes one call to a model.
type Request struct {
	Model  string
	System string
	Prompt string

	// Tools the model may ask the caller to invoke.
	Tools []ToolDef

	// FollowUp resubmits the result of an executed tool as the next turn
	// of the same conversation.
	FollowUp *ToolExchange
}

// ToolDef declares a callable function the model may request.
type ToolDef struct {
	Name        string
	Description string
	Parameters  *schema.Shape
}

// ToolCall is a model's request to invoke a named tool.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolExchange pairs a tool call with the result the caller produced for it.
type ToolExchange struct {
	Call   ToolCall
	Result map[string]any
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps an adapter output. Exactly one of Artifact text content or
// ToolCall is meaningful per turn.
type Response struct {
	Artifact *artifact.Artifact
	ToolCall *ToolCall
	Usage    *Usage
}

// Text returns the generated text content, if any.
func (r *Response) Text() string {
	if r == nil || r.Artifact == nil {
		return ""
	}
	return r.Artifact.Content
}
