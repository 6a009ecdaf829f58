// Package key extracts and compares composite document keys.
//
// A key is an ordered tuple of JSON pointers. Documents order by comparing
// the addressed values left to right with doc.Compare; a missing location
// takes its default, which is null unless set with NewWithDefaults.
package key

import (
	"fmt"

	"github.com/hupe1980/combine/doc"
)

// Location is one key component: a JSON pointer and the value used when
// the pointer addresses nothing.
type Location struct {
	Pointer string
	Default doc.Value
}

type location struct {
	ptr doc.Pointer
	def doc.Value
}

// Extractor projects the key of a document.
type Extractor struct {
	ptrs []doc.Pointer
	locs []location
}

// New builds an Extractor from JSON pointer strings such as "/key". Missing
// locations default to null.
func New(pointers ...string) (*Extractor, error) {
	locs := make([]Location, len(pointers))
	for i, s := range pointers {
		locs[i] = Location{Pointer: s, Default: doc.Null()}
	}
	return NewWithDefaults(locs...)
}

// NewWithDefaults builds an Extractor whose locations carry their own
// defaults. A zero Default is null.
func NewWithDefaults(locations ...Location) (*Extractor, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("key: at least one pointer is required")
	}
	e := &Extractor{
		ptrs: make([]doc.Pointer, len(locations)),
		locs: make([]location, len(locations)),
	}
	for i, l := range locations {
		p, err := doc.ParsePointer(l.Pointer)
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		def := l.Default
		if def.Kind == doc.KindInvalid {
			def = doc.Null()
		}
		e.ptrs[i] = p
		e.locs[i] = location{ptr: p, def: def}
	}
	return e, nil
}

// MustNew is like New but panics on error.
func MustNew(pointers ...string) *Extractor {
	e, err := New(pointers...)
	if err != nil {
		panic(err)
	}
	return e
}

// Pointers returns the key pointers.
func (e *Extractor) Pointers() []doc.Pointer { return e.ptrs }

// Extract returns the key tuple of a mutable document root.
func (e *Extractor) Extract(root doc.Value) []doc.Value {
	out := make([]doc.Value, len(e.locs))
	for i, l := range e.locs {
		out[i] = l.query(root)
	}
	return out
}

// ExtractArchived returns the key tuple of an archived document.
func (e *Extractor) ExtractArchived(a doc.Archived) ([]doc.Value, error) {
	out := make([]doc.Value, len(e.locs))
	for i, l := range e.locs {
		v, err := l.lookup(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Compare orders two mutable document roots by key.
func (e *Extractor) Compare(a, b doc.Value) int {
	for _, l := range e.locs {
		if c := doc.Compare(l.query(a), l.query(b)); c != 0 {
			return c
		}
	}
	return 0
}

// CompareArchived orders two archived documents by key. Only the key
// locations are decoded.
func (e *Extractor) CompareArchived(a, b doc.Archived) (int, error) {
	for _, l := range e.locs {
		va, err := l.lookup(a)
		if err != nil {
			return 0, err
		}
		vb, err := l.lookup(b)
		if err != nil {
			return 0, err
		}
		if c := doc.Compare(va, vb); c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// CompareMixed orders a mutable root against an archived document.
func (e *Extractor) CompareMixed(a doc.Value, b doc.Archived) (int, error) {
	for _, l := range e.locs {
		vb, err := l.lookup(b)
		if err != nil {
			return 0, err
		}
		if c := doc.Compare(l.query(a), vb); c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

func (l location) query(root doc.Value) doc.Value {
	if v, ok := l.ptr.Query(root); ok {
		return v
	}
	return l.def
}

func (l location) lookup(a doc.Archived) (doc.Value, error) {
	v, ok, err := a.Lookup(l.ptr)
	if err != nil {
		return doc.Value{}, err
	}
	if !ok {
		return l.def, nil
	}
	return v, nil
}

// CompareTuples orders two extracted key tuples.
func CompareTuples(a, b []doc.Value) int {
	for i := range min(len(a), len(b)) {
		if c := doc.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
