// Package tools hosts the external functions a model may ask the caller to
// invoke, behind a name-keyed registry.
package tools

import (
	"context"
	"fmt"

	"github.com/zen-systems/promptchain/pkg/adapter"
)

// Tool pairs a declaration the model sees with the callable that executes it.
type Tool struct {
	Def  adapter.ToolDef
	Call func(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Registry maps tool names to implementations.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Later registrations replace earlier ones.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Def.Name] = tool
}

// Defs returns the declarations for every registered tool.
func (r *Registry) Defs() []adapter.ToolDef {
	defs := make([]adapter.ToolDef, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Def)
	}
	return defs
}

// Dispatch executes the named tool with the model-supplied arguments.
func (r *Registry) Dispatch(ctx context.Context, call adapter.ToolCall) (map[string]any, error) {
	tool, ok := r.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("tool %s not registered", call.Name)
	}
	return tool.Call(ctx, call.Args)
}
