package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/zen-systems/promptchain/pkg/adapter"
	"github.com/zen-systems/promptchain/pkg/schema"
)

// NotFoundAnswer is the sentinel returned when no knowledge-base record
// matches the question.
const NotFoundAnswer = "I couldn't find information about that in our knowledge base."

// KBRecord is one question/answer pair in the knowledge base.
type KBRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// KnowledgeBase answers questions from a static set of records.
type KnowledgeBase struct {
	records []KBRecord
}

// LoadKnowledgeBase reads records from a JSON file of the form
// {"records": [{"question": ..., "answer": ...}]}.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	var doc struct {
		Records []KBRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}

	return &KnowledgeBase{records: doc.Records}, nil
}

// NewKnowledgeBase wraps an in-memory record set.
func NewKnowledgeBase(records []KBRecord) *KnowledgeBase {
	return &KnowledgeBase{records: records}
}

// Search returns the first record whose question contains the query,
// case-insensitively, or the not-found sentinel.
func (kb *KnowledgeBase) Search(question string) KBRecord {
	needle := strings.ToLower(question)
	for _, record := range kb.records {
		if strings.Contains(strings.ToLower(record.Question), needle) ||
			strings.Contains(needle, strings.ToLower(record.Question)) {
			return record
		}
	}
	return KBRecord{Answer: NotFoundAnswer}
}

// Tool exposes the knowledge base as a registrable tool.
func (kb *KnowledgeBase) Tool() Tool {
	return Tool{
		Def: adapter.ToolDef{
			Name:        "search_kb",
			Description: "Search the knowledge base for answers to customer questions about store policies, shipping, and payments.",
			Parameters: &schema.Shape{
				Name: "search_kb",
				Fields: []schema.Field{
					{Name: "question", Kind: schema.KindString, Required: true, Description: "The customer's question to search for"},
				},
			},
		},
		Call: func(_ context.Context, args map[string]any) (map[string]any, error) {
			question, _ := args["question"].(string)
			if question == "" {
				return nil, fmt.Errorf("question is required")
			}
			record := kb.Search(question)
			return map[string]any{
				"question": record.Question,
				"answer":   record.Answer,
			}, nil
		},
	}
}
