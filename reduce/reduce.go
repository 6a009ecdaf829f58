// Package reduce combines two documents sharing a key according to the
// "reduce" annotations of their schema.
//
// Reduction is associative and order-sensitive: callers must always pass the
// earlier document as lhs and the later one as rhs. A document flagged
// doc.FlagReduced takes precedence and becomes the left operand when the
// other one is not reduced.
package reduce

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/schema"
)

// Allocator provides scratch storage for reduced values.
type Allocator interface {
	Values(n int) ([]doc.Value, error)
	Fields(n int) ([]doc.Field, error)
}

// Reducer combines two same-keyed documents.
type Reducer interface {
	Reduce(alloc Allocator, binding uint32, lhs doc.Value, lhsFlags doc.Flags, rhs doc.Value, rhsFlags doc.Flags, s *schema.Schema) (doc.Value, doc.Flags, error)
}

// Error reports a reduction that could not be applied.
type Error struct {
	Location string
	Strategy schema.Strategy
	Reason   string
	cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reduce %s at %s: %s", e.Strategy, e.Location, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// Smash is the schema-directed Reducer.
type Smash struct{}

var _ Reducer = Smash{}

// Reduce implements Reducer. The result always carries doc.FlagReduced.
func (Smash) Reduce(alloc Allocator, _ uint32, lhs doc.Value, lhsFlags doc.Flags, rhs doc.Value, rhsFlags doc.Flags, s *schema.Schema) (doc.Value, doc.Flags, error) {
	if !lhsFlags.Has(doc.FlagReduced) && rhsFlags.Has(doc.FlagReduced) {
		lhs, rhs = rhs, lhs
	}
	out, err := reduce(alloc, lhs, rhs, s, "")
	if err != nil {
		return doc.Value{}, 0, err
	}
	return out, lhsFlags | rhsFlags | doc.FlagReduced, nil
}

func reduce(alloc Allocator, lhs, rhs doc.Value, s *schema.Schema, loc string) (doc.Value, error) {
	strategy := s.Strategy()
	fail := func(format string, args ...any) error {
		return &Error{Location: where(loc), Strategy: strategy, Reason: fmt.Sprintf(format, args...)}
	}

	switch strategy {
	case schema.LastWriteWins:
		return rhs, nil
	case schema.FirstWriteWins:
		return lhs, nil
	case schema.Minimize:
		if doc.Compare(rhs, lhs) < 0 {
			return rhs, nil
		}
		return lhs, nil
	case schema.Maximize:
		if doc.Compare(rhs, lhs) > 0 {
			return rhs, nil
		}
		return lhs, nil
	case schema.Sum:
		return sum(lhs, rhs, fail)
	case schema.Append:
		if lhs.Kind == doc.KindNull {
			return rhs, nil
		}
		if lhs.Kind != doc.KindArray || rhs.Kind != doc.KindArray {
			return doc.Value{}, fail("expected arrays, got %s and %s", lhs.Kind, rhs.Kind)
		}
		items, err := alloc.Values(len(lhs.A) + len(rhs.A))
		if err != nil {
			return doc.Value{}, &Error{Location: where(loc), Strategy: strategy, Reason: "allocation failed", cause: err}
		}
		copy(items, lhs.A)
		copy(items[len(lhs.A):], rhs.A)
		return doc.Value{Kind: doc.KindArray, A: items}, nil
	case schema.Merge:
		switch {
		case lhs.Kind == doc.KindObject && rhs.Kind == doc.KindObject:
			return mergeObjects(alloc, lhs, rhs, s, loc)
		case lhs.Kind == doc.KindArray && rhs.Kind == doc.KindArray:
			return mergeArrays(alloc, lhs, rhs, s, loc)
		default:
			return doc.Value{}, fail("expected two objects or two arrays, got %s and %s", lhs.Kind, rhs.Kind)
		}
	}
	return doc.Value{}, fail("unsupported strategy")
}

func where(loc string) string {
	if loc == "" {
		return "/"
	}
	return loc
}

func sum(lhs, rhs doc.Value, fail func(string, ...any) error) (doc.Value, error) {
	if lhs.Kind == doc.KindNull {
		return rhs, nil
	}
	if lhs.Kind == doc.KindInt && rhs.Kind == doc.KindInt {
		s := lhs.I64 + rhs.I64
		// Signed overflow: operands share a sign the result doesn't.
		if (lhs.I64 >= 0) == (rhs.I64 >= 0) && (s >= 0) != (lhs.I64 >= 0) {
			return doc.Float(float64(lhs.I64) + float64(rhs.I64)), nil
		}
		return doc.Int(s), nil
	}
	a, aok := lhs.AsFloat64()
	b, bok := rhs.AsFloat64()
	if !aok || !bok {
		return doc.Value{}, fail("expected numbers, got %s and %s", lhs.Kind, rhs.Kind)
	}
	r := a + b
	if math.IsInf(r, 0) {
		return doc.Value{}, fail("sum overflows")
	}
	return doc.Float(r), nil
}

// mergeObjects walks both sorted field lists, reducing shared properties.
func mergeObjects(alloc Allocator, lhs, rhs doc.Value, s *schema.Schema, loc string) (doc.Value, error) {
	fields, err := alloc.Fields(len(lhs.O) + len(rhs.O))
	if err != nil {
		return doc.Value{}, &Error{Location: where(loc), Strategy: schema.Merge, Reason: "allocation failed", cause: err}
	}
	fields = fields[:0]

	i, j := 0, 0
	for i < len(lhs.O) && j < len(rhs.O) {
		l, r := lhs.O[i], rhs.O[j]
		switch {
		case l.Name < r.Name:
			fields = append(fields, l)
			i++
		case l.Name > r.Name:
			fields = append(fields, r)
			j++
		default:
			v, err := reduce(alloc, l.Value, r.Value, s.Property(l.Name), loc+"/"+l.Name)
			if err != nil {
				return doc.Value{}, err
			}
			fields = append(fields, doc.Field{Name: l.Name, Value: v})
			i++
			j++
		}
	}
	fields = append(fields, lhs.O[i:]...)
	fields = append(fields, rhs.O[j:]...)
	return doc.Value{Kind: doc.KindObject, O: fields}, nil
}

// mergeArrays reduces items index-wise; the longer array's tail is kept.
func mergeArrays(alloc Allocator, lhs, rhs doc.Value, s *schema.Schema, loc string) (doc.Value, error) {
	n := max(len(lhs.A), len(rhs.A))
	items, err := alloc.Values(n)
	if err != nil {
		return doc.Value{}, &Error{Location: where(loc), Strategy: schema.Merge, Reason: "allocation failed", cause: err}
	}
	for k := 0; k < n; k++ {
		switch {
		case k >= len(lhs.A):
			items[k] = rhs.A[k]
		case k >= len(rhs.A):
			items[k] = lhs.A[k]
		default:
			v, err := reduce(alloc, lhs.A[k], rhs.A[k], s.ItemSchema(), loc+"/"+strconv.Itoa(k))
			if err != nil {
				return doc.Value{}, err
			}
			items[k] = v
		}
	}
	return doc.Value{Kind: doc.KindArray, A: items}, nil
}
