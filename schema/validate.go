package schema

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/combine/doc"
)

// Violation is a single failed constraint.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string { return v.Location + ": " + v.Message }

// Outcome is the result of validating a document.
type Outcome struct {
	Violations []Violation
}

// Valid reports whether no constraint failed.
func (o Outcome) Valid() bool { return len(o.Violations) == 0 }

// String joins all violations.
func (o Outcome) String() string {
	parts := make([]string, len(o.Violations))
	for i, v := range o.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Validator validates documents against schemas.
type Validator interface {
	Validate(s *Schema, v doc.Value) (Outcome, error)
}

// Standard is the built-in Validator.
type Standard struct{}

var _ Validator = Standard{}

// Validate checks v against s. A nil schema accepts every document. An error
// is returned only if the schema itself cannot be evaluated.
func (Standard) Validate(s *Schema, v doc.Value) (Outcome, error) {
	if err := s.Check(); err != nil {
		return Outcome{}, err
	}
	var out Outcome
	validate(s, v, "", &out)
	return out, nil
}

func validate(s *Schema, v doc.Value, loc string, out *Outcome) {
	if s == nil {
		return
	}
	fail := func(format string, args ...any) {
		out.Violations = append(out.Violations, Violation{Location: locOrRoot(loc), Message: fmt.Sprintf(format, args...)})
	}

	if len(s.Type) > 0 && !slices.ContainsFunc(s.Type, func(t string) bool { return matchesType(t, v) }) {
		fail("expected %s, got %s", strings.Join(s.Type, " or "), v.Kind)
		return
	}

	if f, ok := v.AsFloat64(); ok {
		if s.Minimum != nil && f < *s.Minimum {
			fail("%v is less than minimum %v", f, *s.Minimum)
		}
		if s.Maximum != nil && f > *s.Maximum {
			fail("%v is greater than maximum %v", f, *s.Maximum)
		}
	}

	switch v.Kind {
	case doc.KindObject:
		for _, name := range s.Required {
			if _, ok := v.Get(name); !ok {
				fail("missing required property %q", name)
			}
		}
		for _, f := range v.O {
			if child := s.Properties[f.Name]; child != nil {
				validate(child, f.Value, loc+"/"+escape(f.Name), out)
			}
		}
	case doc.KindArray:
		if s.MaxItems != nil && len(v.A) > *s.MaxItems {
			fail("array has %d items, more than maxItems %d", len(v.A), *s.MaxItems)
		}
		if s.Items != nil {
			for i, item := range v.A {
				validate(s.Items, item, loc+"/"+strconv.Itoa(i), out)
			}
		}
	}
}

func matchesType(t string, v doc.Value) bool {
	switch t {
	case "null":
		return v.Kind == doc.KindNull
	case "boolean":
		return v.Kind == doc.KindBool
	case "integer":
		return v.Kind == doc.KindInt || (v.Kind == doc.KindFloat && v.F64 == math.Trunc(v.F64))
	case "number":
		return v.Kind == doc.KindInt || v.Kind == doc.KindFloat
	case "string":
		return v.Kind == doc.KindString
	case "array":
		return v.Kind == doc.KindArray
	case "object":
		return v.Kind == doc.KindObject
	}
	return false
}
