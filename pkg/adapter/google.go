package adapter

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/zen-systems/promptchain/pkg/artifact"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// GoogleAdapter implements the Adapter interface for Gemini models.
type GoogleAdapter struct {
	client *genai.Client
}

// NewGoogleAdapter creates a new Google Gemini adapter.
func NewGoogleAdapter(apiKey string) (*GoogleAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *GoogleAdapter) Name() string {
	return "google"
}

// Models returns the list of supported Gemini models.
func (a *GoogleAdapter) Models() []string {
	return []string{
		"gemini-2.0-pro",
		"gemini-2.0-flash",
	}
}

// Generate sends a request to Gemini and returns the response.
func (a *GoogleAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: functionDeclarations(req.Tools)}}
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	if req.FollowUp != nil {
		contents = append(contents,
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromFunctionCall(req.FollowUp.Call.Name, req.FollowUp.Call.Args),
			}, genai.RoleModel),
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromFunctionResponse(req.FollowUp.Call.Name, req.FollowUp.Result),
			}, genai.RoleUser),
		)
	}

	resp, err := a.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, &AdapterError{Err: fmt.Errorf("google API error: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &AdapterError{Err: fmt.Errorf("google returned no candidates")}
	}

	var content string
	var toolCall *ToolCall
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
			if part.FunctionCall != nil && toolCall == nil {
				toolCall = &ToolCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				}
			}
		}
	}

	return &Response{
		Artifact: artifact.New(content, a.Name(), req.Model, req.Prompt),
		ToolCall: toolCall,
		Usage:    googleUsage(resp),
	}, nil
}

func googleUsage(resp *genai.GenerateContentResponse) *Usage {
	meta := resp.UsageMetadata
	if meta == nil {
		return nil
	}
	return &Usage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}

func functionDeclarations(tools []ToolDef) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  genaiSchema(tool.Parameters),
		})
	}
	return decls
}

func genaiSchema(shape *schema.Shape) *genai.Schema {
	if shape == nil {
		return nil
	}
	properties := make(map[string]*genai.Schema, len(shape.Fields))
	for _, field := range shape.Fields {
		properties[field.Name] = genaiFieldSchema(field)
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   shape.RequiredFields(),
	}
}

func genaiFieldSchema(field schema.Field) *genai.Schema {
	s := &genai.Schema{Description: field.Description}
	switch field.Kind {
	case schema.KindString:
		s.Type = genai.TypeString
	case schema.KindNumber:
		s.Type = genai.TypeNumber
	case schema.KindInteger:
		s.Type = genai.TypeInteger
	case schema.KindBool:
		s.Type = genai.TypeBoolean
	case schema.KindEnum:
		s.Type = genai.TypeString
		s.Enum = field.Enum
	case schema.KindList:
		s.Type = genai.TypeArray
		if field.Item != nil {
			s.Items = genaiFieldSchema(*field.Item)
		}
	case schema.KindObject:
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(field.Fields))
		for _, nested := range field.Fields {
			s.Properties[nested.Name] = genaiFieldSchema(nested)
		}
	}
	return s
}
