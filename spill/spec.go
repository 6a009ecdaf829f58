package spill

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/key"
	"github.com/hupe1980/combine/reduce"
	"github.com/hupe1980/combine/schema"
)

// Binding is the key, schema and validator configuration of one binding.
type Binding struct {
	// Key orders documents of the binding. Required.
	Key *key.Extractor
	// Schema carries the reduce annotations and validation constraints.
	// A nil Schema reduces with lastWriteWins and accepts every document.
	Schema *schema.Schema
	// Validator defaults to schema.Standard.
	Validator schema.Validator
}

// Spec maps binding indices to their configuration. It is fixed for the
// lifetime of a Drainer.
type Spec struct {
	bindings []Binding
	reducer  reduce.Reducer
}

// NewSpec builds a Spec. Binding i of a document selects bindings[i]. A nil
// reducer defaults to reduce.Smash.
func NewSpec(reducer reduce.Reducer, bindings ...Binding) (*Spec, error) {
	if len(bindings) == 0 {
		return nil, errors.New("spill: spec requires at least one binding")
	}
	if reducer == nil {
		reducer = reduce.Smash{}
	}
	out := make([]Binding, len(bindings))
	for i, b := range bindings {
		if b.Key == nil {
			return nil, fmt.Errorf("spill: binding %d has no key extractor", i)
		}
		if err := b.Schema.Check(); err != nil {
			return nil, fmt.Errorf("spill: binding %d: %w", i, err)
		}
		if b.Validator == nil {
			b.Validator = schema.Standard{}
		}
		out[i] = b
	}
	return &Spec{bindings: out, reducer: reducer}, nil
}

// MustNewSpec is like NewSpec but panics on error.
func MustNewSpec(reducer reduce.Reducer, bindings ...Binding) *Spec {
	s, err := NewSpec(reducer, bindings...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of bindings.
func (s *Spec) Len() int { return len(s.bindings) }

// Binding returns the configuration of binding i.
func (s *Spec) Binding(i uint32) (*Binding, error) {
	if int64(i) >= int64(len(s.bindings)) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBinding, i)
	}
	return &s.bindings[i], nil
}

// Reducer returns the reducer shared by all bindings.
func (s *Spec) Reducer() reduce.Reducer { return s.reducer }

// Compare orders two mutable documents by binding, then key.
func (s *Spec) Compare(a, b doc.Document) (int, error) {
	if c := cmp.Compare(a.Binding, b.Binding); c != 0 {
		return c, nil
	}
	bd, err := s.Binding(a.Binding)
	if err != nil {
		return 0, err
	}
	return bd.Key.Compare(a.Root, b.Root), nil
}

// CompareArchived orders two archived documents by binding, then key,
// decoding only the key locations.
func (s *Spec) CompareArchived(a, b doc.Archived) (int, error) {
	if c := cmp.Compare(a.Binding, b.Binding); c != 0 {
		return c, nil
	}
	bd, err := s.Binding(a.Binding)
	if err != nil {
		return 0, err
	}
	return bd.Key.CompareArchived(a, b)
}

// Validate checks d against its binding's schema. It returns a
// *FailedValidationError if d does not conform, and a *schema.SchemaError if
// the schema cannot be evaluated.
func (s *Spec) Validate(d doc.Document) error {
	bd, err := s.Binding(d.Binding)
	if err != nil {
		return err
	}
	out, err := bd.Validator.Validate(bd.Schema, d.Root)
	if err != nil {
		return err
	}
	if !out.Valid() {
		return &FailedValidationError{Binding: d.Binding, Key: bd.Key.Extract(d.Root), Outcome: out}
	}
	return nil
}
