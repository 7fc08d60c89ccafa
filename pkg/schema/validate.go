package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Record is a validated structured response.
type Record map[string]any

// String returns the named field as a string.
func (r Record) String(name string) string {
	v, _ := r[name].(string)
	return v
}

// Bool returns the named field as a bool.
func (r Record) Bool(name string) bool {
	v, _ := r[name].(bool)
	return v
}

// Float returns the named field as a float64.
func (r Record) Float(name string) float64 {
	switch v := r[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Strings returns the named field as a string slice.
func (r Record) Strings(name string) []string {
	items, ok := r[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Decode unmarshals the record into a typed struct via a JSON round trip.
func (r Record) Decode(out any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// ValidationError describes why a response failed shape validation.
type ValidationError struct {
	Shape  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("shape %s: field %s: %s", e.Shape, e.Field, e.Reason)
	}
	return fmt.Sprintf("shape %s: %s", e.Shape, e.Reason)
}

// StripFences removes surrounding markdown code fences, optionally tagged
// json, that models commonly wrap structured output in.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Validate parses raw model output and checks it against the shape.
// Out-of-range numeric values are rejected, not clamped.
func Validate(raw string, shape *Shape) (Record, error) {
	if shape == nil {
		return nil, &ValidationError{Shape: "", Reason: "shape is required"}
	}

	cleaned := StripFences(raw)

	var record Record
	if err := json.Unmarshal([]byte(cleaned), &record); err != nil {
		return nil, &ValidationError{Shape: shape.Name, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	for _, field := range shape.Fields {
		value, present := record[field.Name]
		if !present || value == nil {
			if field.Required {
				return nil, &ValidationError{Shape: shape.Name, Field: field.Name, Reason: "required field missing"}
			}
			continue
		}
		if err := checkField(shape.Name, field, value); err != nil {
			return nil, err
		}
	}

	return record, nil
}

func checkField(shapeName string, field Field, value any) error {
	fail := func(reason string) error {
		return &ValidationError{Shape: shapeName, Field: field.Name, Reason: reason}
	}

	switch field.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return fail("expected string")
		}

	case KindBool:
		if _, ok := value.(bool); !ok {
			return fail("expected boolean")
		}

	case KindNumber, KindInteger:
		num, ok := value.(float64)
		if !ok {
			return fail("expected number")
		}
		if field.Kind == KindInteger && num != math.Trunc(num) {
			return fail("expected integer")
		}
		if field.Min != nil && num < *field.Min {
			return fail(fmt.Sprintf("value %v below minimum %v", num, *field.Min))
		}
		if field.Max != nil && num > *field.Max {
			return fail(fmt.Sprintf("value %v above maximum %v", num, *field.Max))
		}

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return fail("expected string")
		}
		for _, allowed := range field.Enum {
			if s == allowed {
				return nil
			}
		}
		return fail(fmt.Sprintf("value %q not in %v", s, field.Enum))

	case KindList:
		items, ok := value.([]any)
		if !ok {
			return fail("expected array")
		}
		if field.Item != nil {
			for i, item := range items {
				elem := *field.Item
				elem.Name = fmt.Sprintf("%s[%d]", field.Name, i)
				if err := checkField(shapeName, elem, item); err != nil {
					return err
				}
			}
		}

	case KindObject:
		nested, ok := value.(map[string]any)
		if !ok {
			return fail("expected object")
		}
		for _, nestedField := range field.Fields {
			nestedValue, present := nested[nestedField.Name]
			if !present || nestedValue == nil {
				if nestedField.Required {
					return &ValidationError{
						Shape:  shapeName,
						Field:  field.Name + "." + nestedField.Name,
						Reason: "required field missing",
					}
				}
				continue
			}
			scoped := nestedField
			scoped.Name = field.Name + "." + nestedField.Name
			if err := checkField(shapeName, scoped, nestedValue); err != nil {
				return err
			}
		}

	default:
		return fail(fmt.Sprintf("unknown kind %q", field.Kind))
	}

	return nil
}
