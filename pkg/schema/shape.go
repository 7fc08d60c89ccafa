package schema

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates the primitive field kinds a shape may declare.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBool    Kind = "boolean"
	KindEnum    Kind = "enum"
	KindList    Kind = "list"
	KindObject  Kind = "object"
)

// Field describes one field of a structured output shape.
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Description string

	// Numeric bounds, inclusive. Nil means unbounded.
	Min *float64
	Max *float64

	// Allowed values for KindEnum.
	Enum []string

	// Element descriptor for KindList.
	Item *Field

	// Nested fields for KindObject.
	Fields []Field
}

// Shape is a named description of the structured output a stage expects.
// It drives both prompt construction and response validation.
type Shape struct {
	Name        string
	Description string
	Fields      []Field
}

// Bound returns a pointer to v, for declaring Min/Max inline.
func Bound(v float64) *float64 {
	return &v
}

// Required returns the names of all required fields.
func (s *Shape) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Field looks up a field descriptor by name.
func (s *Shape) Field(name string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// PromptSchema renders the shape as a JSON schema document suitable for
// embedding in a model instruction.
func (s *Shape) PromptSchema() string {
	doc := map[string]any{
		"title":      s.Name,
		"type":       "object",
		"properties": propertiesDoc(s.Fields),
	}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if required := s.RequiredFields(); len(required) > 0 {
		doc["required"] = required
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Shapes are static declarations; marshal cannot fail on them.
		return fmt.Sprintf("{%q: %q}", "title", s.Name)
	}
	return string(data)
}

func propertiesDoc(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldDoc(f)
	}
	return props
}

func fieldDoc(f Field) map[string]any {
	doc := map[string]any{}
	switch f.Kind {
	case KindEnum:
		doc["type"] = "string"
		doc["enum"] = f.Enum
	case KindList:
		doc["type"] = "array"
		if f.Item != nil {
			doc["items"] = fieldDoc(*f.Item)
		}
	case KindObject:
		doc["type"] = "object"
		doc["properties"] = propertiesDoc(f.Fields)
		var required []string
		for _, nested := range f.Fields {
			if nested.Required {
				required = append(required, nested.Name)
			}
		}
		if len(required) > 0 {
			doc["required"] = required
		}
	default:
		doc["type"] = string(f.Kind)
	}
	if f.Description != "" {
		doc["description"] = f.Description
	}
	if f.Min != nil {
		doc["minimum"] = *f.Min
	}
	if f.Max != nil {
		doc["maximum"] = *f.Max
	}
	return doc
}
