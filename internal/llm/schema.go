package llm

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ToGenaiSchema converts a JSON-schema map into a Gemini schema. It handles
// the subset used by tool definitions: type, description, properties,
// required, items, enum and nullable (including ["string","null"] type
// unions).
func ToGenaiSchema(m map[string]any) (*genai.Schema, error) {
	if m == nil {
		return nil, nil
	}

	s := &genai.Schema{}
	switch t := m["type"].(type) {
	case string:
		typ, err := genaiType(t)
		if err != nil {
			return nil, err
		}
		s.Type = typ
	case []any:
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				s.Nullable = genai.Ptr(true)
				continue
			}
			typ, err := genaiType(name)
			if err != nil {
				return nil, err
			}
			s.Type = typ
		}
	case []string:
		for _, name := range t {
			if name == "null" {
				s.Nullable = genai.Ptr(true)
				continue
			}
			typ, err := genaiType(name)
			if err != nil {
				return nil, err
			}
			s.Type = typ
		}
	case nil:
	default:
		return nil, fmt.Errorf("unsupported schema type %T", t)
	}

	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if n, ok := m["nullable"].(bool); ok && n {
		s.Nullable = genai.Ptr(true)
	}
	s.Enum = stringSlice(m["enum"])
	s.Required = stringSlice(m["required"])

	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			pm, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %q: expected object schema", name)
			}
			ps, err := ToGenaiSchema(pm)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			s.Properties[name] = ps
		}
		if order := stringSlice(m["propertyOrdering"]); len(order) > 0 {
			s.PropertyOrdering = order
		}
	}

	if items, ok := m["items"].(map[string]any); ok {
		is, err := ToGenaiSchema(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s.Items = is
	}

	return s, nil
}

func genaiType(name string) (genai.Type, error) {
	switch strings.ToLower(name) {
	case "object":
		return genai.TypeObject, nil
	case "string":
		return genai.TypeString, nil
	case "number":
		return genai.TypeNumber, nil
	case "integer":
		return genai.TypeInteger, nil
	case "boolean":
		return genai.TypeBoolean, nil
	case "array":
		return genai.TypeArray, nil
	default:
		return genai.TypeUnspecified, fmt.Errorf("unsupported schema type %q", name)
	}
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, x := range vals {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
