package doc

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/hupe1980/combine/codec"
)

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// FromAny converts a decoded JSON-like Go value into a Value.
//
// Supported inputs: nil, bool, all integer and float types, string,
// json.Number, []any, map[string]any and Value itself.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t)), nil
		}
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case number:
		if i, err := t.Int64(); err == nil && !strings.ContainsAny(t.String(), ".eE") {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("doc: invalid number %q: %w", t.String(), err)
		}
		return Float(f), nil
	case []any:
		items := make([]Value, len(t))
		for i := range t {
			v, err := FromAny(t[i])
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items...), nil
	case map[string]any:
		fields := make([]Field, 0, len(t))
		for k, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Name: k, Value: v})
		}
		slices.SortFunc(fields, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })
		return Value{Kind: KindObject, O: fields}, nil
	default:
		return Value{}, fmt.Errorf("doc: unsupported type %T", x)
	}
}

// Any converts v into plain Go values (nil, bool, int64, float64, string,
// []any, map[string]any).
func (v Value) Any() any {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindInt:
		return v.I64
	case KindFloat:
		return v.F64
	case KindString:
		return v.S
	case KindArray:
		out := make([]any, len(v.A))
		for i := range v.A {
			out[i] = v.A[i].Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.O))
		for _, f := range v.O {
			out[f.Name] = f.Value.Any()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return codec.Default.Marshal(v.Any())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseJSON decodes a JSON text into a Value using codec.Default.
// Integral numbers decode as KindInt.
func ParseJSON(data []byte) (Value, error) {
	var x any
	if err := codec.Default.Unmarshal(data, &x); err != nil {
		return Value{}, fmt.Errorf("doc: parse json: %w", err)
	}
	return FromAny(x)
}

// MustParseJSON is like ParseJSON but panics on error. Intended for tests.
func MustParseJSON(s string) Value {
	v, err := ParseJSON([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}
