package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zen-systems/promptchain/pkg/artifact"
)

type mockRule struct {
	match string
	text  string
	call  *ToolCall
	err   error
}

// MockAdapter returns deterministic responses for local runs and tests.
// Rules are evaluated in registration order; the first rule whose match
// string appears in the rendered prompt (or system instruction) wins.
type MockAdapter struct {
	mu              sync.Mutex
	rules           []mockRule
	defaultResponse string
	Usage           *Usage
	requests        []Request
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{defaultResponse: "mock response:"}
}

// Respond registers a text response for prompts containing match.
func (a *MockAdapter) Respond(match, text string) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = append(a.rules, mockRule{match: match, text: text})
	return a
}

// RespondCall registers a tool-invocation response for prompts containing match.
func (a *MockAdapter) RespondCall(match string, call ToolCall) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = append(a.rules, mockRule{match: match, call: &call})
	return a
}

// Fail registers an error for prompts containing match.
func (a *MockAdapter) Fail(match string, err error) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = append(a.rules, mockRule{match: match, err: err})
	return a
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Requests returns a copy of every request seen, in order.
func (a *MockAdapter) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Request, len(a.requests))
	copy(out, a.requests)
	return out
}

// Generate returns the first matching scripted response.
func (a *MockAdapter) Generate(_ context.Context, req Request) (*Response, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	rules := make([]mockRule, len(a.rules))
	copy(rules, a.rules)
	a.mu.Unlock()

	model := req.Model
	if model == "" {
		model = "mock-1"
	}

	haystack := req.System + "\n" + req.Prompt
	if req.FollowUp != nil {
		haystack += "\nfollowup:" + req.FollowUp.Call.Name
	}

	for _, rule := range rules {
		if rule.match != "" && !strings.Contains(haystack, rule.match) {
			continue
		}
		if rule.err != nil {
			return nil, rule.err
		}
		if rule.call != nil {
			return &Response{
				Artifact: artifact.New("", a.Name(), model, req.Prompt),
				ToolCall: rule.call,
				Usage:    a.Usage,
			}, nil
		}
		return &Response{
			Artifact: artifact.New(rule.text, a.Name(), model, req.Prompt),
			Usage:    a.Usage,
		}, nil
	}

	content := fmt.Sprintf("%s\n%s", a.defaultResponse, req.Prompt)
	return &Response{
		Artifact: artifact.New(content, a.Name(), model, req.Prompt),
		Usage:    a.Usage,
	}, nil
}
