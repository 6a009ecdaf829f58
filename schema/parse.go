package schema

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/hupe1980/combine/codec"
	"github.com/hupe1980/combine/doc"
)

// ParseJSON parses and checks a JSON schema document.
func ParseJSON(data []byte) (*Schema, error) {
	v, err := doc.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	s, err := fromValue(v, "")
	if err != nil {
		return nil, err
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseYAML parses and checks a YAML schema document.
func ParseYAML(data []byte) (*Schema, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("schema: parse yaml: %w", err)
	}
	return ParseJSON(js)
}

// MustParseJSON is like ParseJSON but panics on error.
func MustParseJSON(s string) *Schema {
	sch, err := ParseJSON([]byte(s))
	if err != nil {
		panic(err)
	}
	return sch
}

// MarshalJSON renders the schema back to JSON.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return codec.Default.Marshal(s.toAny())
}

func (s *Schema) toAny() map[string]any {
	out := map[string]any{}
	switch len(s.Type) {
	case 0:
	case 1:
		out["type"] = s.Type[0]
	default:
		out["type"] = s.Type
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, p := range s.Properties {
			props[k] = p.toAny()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = s.Items.toAny()
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.Reduce != "" {
		out["reduce"] = map[string]any{"strategy": string(s.Reduce)}
	}
	return out
}

func fromValue(v doc.Value, loc string) (*Schema, error) {
	if v.Kind == doc.KindBool && v.B {
		return &Schema{}, nil
	}
	if v.Kind != doc.KindObject {
		return nil, &SchemaError{Location: locOrRoot(loc), Reason: "schema must be an object"}
	}
	s := &Schema{}
	for _, f := range v.O {
		var err error
		switch f.Name {
		case "type":
			s.Type, err = stringList(f.Value, loc, "type")
		case "required":
			s.Required, err = stringList(f.Value, loc, "required")
		case "properties":
			if f.Value.Kind != doc.KindObject {
				return nil, &SchemaError{Location: locOrRoot(loc), Reason: "properties must be an object"}
			}
			s.Properties = make(map[string]*Schema, len(f.Value.O))
			for _, p := range f.Value.O {
				child, cerr := fromValue(p.Value, loc+"/"+escape(p.Name))
				if cerr != nil {
					return nil, cerr
				}
				s.Properties[p.Name] = child
			}
		case "items":
			s.Items, err = fromValue(f.Value, loc+"/*")
		case "minimum":
			s.Minimum, err = number(f.Value, loc, "minimum")
		case "maximum":
			s.Maximum, err = number(f.Value, loc, "maximum")
		case "maxItems":
			n, ok := f.Value.AsInt64()
			if !ok {
				return nil, &SchemaError{Location: locOrRoot(loc), Reason: "maxItems must be an integer"}
			}
			m := int(n)
			s.MaxItems = &m
		case "reduce":
			strategy, ok := f.Value.Get("strategy")
			name, sok := strategy.AsString()
			if !ok || !sok {
				return nil, &SchemaError{Location: locOrRoot(loc), Reason: "reduce must be an object with a string strategy"}
			}
			s.Reduce = Strategy(name)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func stringList(v doc.Value, loc, keyword string) ([]string, error) {
	if s, ok := v.AsString(); ok {
		return []string{s}, nil
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, &SchemaError{Location: locOrRoot(loc), Reason: keyword + " must be a string or array of strings"}
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.AsString()
		if !ok {
			return nil, &SchemaError{Location: locOrRoot(loc), Reason: keyword + " must be a string or array of strings"}
		}
		out[i] = s
	}
	return out, nil
}

func number(v doc.Value, loc, keyword string) (*float64, error) {
	f, ok := v.AsFloat64()
	if !ok {
		return nil, &SchemaError{Location: locOrRoot(loc), Reason: keyword + " must be a number"}
	}
	return &f, nil
}
