// Package schema provides document schemas with reduction annotations and a
// validator over doc.Value trees.
//
// Schemas use a JSON-Schema-like vocabulary (type, properties, required,
// items, minimum, maximum, maxItems) plus a "reduce" keyword selecting the
// strategy used to combine two documents sharing a key:
//
//	{
//	  "type": "object",
//	  "reduce": {"strategy": "merge"},
//	  "properties": {
//	    "key": {"type": "string"},
//	    "v":   {"type": "array", "reduce": {"strategy": "append"}}
//	  },
//	  "required": ["key"]
//	}
package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Strategy names a reduction strategy.
type Strategy string

const (
	// LastWriteWins keeps the right-hand document. It is the default.
	LastWriteWins Strategy = "lastWriteWins"
	// FirstWriteWins keeps the left-hand document.
	FirstWriteWins Strategy = "firstWriteWins"
	// Append concatenates arrays left to right.
	Append Strategy = "append"
	// Merge combines objects property by property, reducing shared properties
	// with their own strategies.
	Merge Strategy = "merge"
	// Sum adds numbers.
	Sum Strategy = "sum"
	// Minimize keeps the smaller value.
	Minimize Strategy = "minimize"
	// Maximize keeps the larger value.
	Maximize Strategy = "maximize"
)

var strategies = []Strategy{LastWriteWins, FirstWriteWins, Append, Merge, Sum, Minimize, Maximize}

var typeNames = []string{"null", "boolean", "integer", "number", "string", "array", "object"}

// SchemaError reports a schema that cannot be evaluated.
type SchemaError struct {
	Location string
	Reason   string
}

func (e *SchemaError) Error() string {
	if e.Location == "" {
		return "schema error: " + e.Reason
	}
	return fmt.Sprintf("schema error at %s: %s", e.Location, e.Reason)
}

// Schema describes the expected shape of a document location.
type Schema struct {
	Type       []string
	Properties map[string]*Schema
	Required   []string
	Items      *Schema
	Minimum    *float64
	Maximum    *float64
	MaxItems   *int
	Reduce     Strategy
}

// Property returns the sub-schema of the named property, or nil.
func (s *Schema) Property(name string) *Schema {
	if s == nil {
		return nil
	}
	return s.Properties[name]
}

// ItemSchema returns the schema of array items, or nil.
func (s *Schema) ItemSchema() *Schema {
	if s == nil {
		return nil
	}
	return s.Items
}

// Strategy returns the reduction strategy at this location. Locations
// without an annotation use LastWriteWins.
func (s *Schema) Strategy() Strategy {
	if s == nil || s.Reduce == "" {
		return LastWriteWins
	}
	return s.Reduce
}

// Check verifies that the schema can be evaluated: type names and reduction
// strategies must be known.
func (s *Schema) Check() error {
	return s.check("")
}

func (s *Schema) check(loc string) error {
	if s == nil {
		return nil
	}
	for _, t := range s.Type {
		if !slices.Contains(typeNames, t) {
			return &SchemaError{Location: locOrRoot(loc), Reason: fmt.Sprintf("unknown type %q", t)}
		}
	}
	if s.Reduce != "" && !slices.Contains(strategies, s.Reduce) {
		return &SchemaError{Location: locOrRoot(loc), Reason: fmt.Sprintf("unknown reduce strategy %q", s.Reduce)}
	}
	if s.MaxItems != nil && *s.MaxItems < 0 {
		return &SchemaError{Location: locOrRoot(loc), Reason: "maxItems must be non-negative"}
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := s.Properties[name].check(loc + "/" + escape(name)); err != nil {
			return err
		}
	}
	return s.Items.check(loc + "/*")
}

func locOrRoot(loc string) string {
	if loc == "" {
		return "/"
	}
	return loc
}

func escape(tok string) string {
	return strings.ReplaceAll(strings.ReplaceAll(tok, "~", "~0"), "/", "~1")
}
