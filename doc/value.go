package doc

import (
	"slices"
	"strings"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindBool represents a boolean value.
	KindBool
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindArray represents an array value.
	KindArray
	// KindObject represents an object value.
	KindObject
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a node of a document tree.
//
// The zero Value is invalid. Use the constructors (Null, Bool, Int, ...).
// NOTE: This is also used for persistence; keep it stable.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	S    string
	B    bool
	A    []Value
	O    []Field // sorted by Name, unique
}

// Field is a named property of an object Value.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for constructing a Field.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Array returns an array Value.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindArray, A: items}
}

// Object returns an object Value. Fields are sorted by name; on duplicate
// names the last occurrence wins.
func Object(fields ...Field) Value {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		out = setField(out, f.Name, f.Value)
	}
	return Value{Kind: KindObject, O: out}
}

// IsValid reports whether v holds a known kind.
func (v Value) IsValid() bool { return v.Kind > KindInvalid && v.Kind <= KindObject }

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the numeric value as float64 for KindInt and KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I64), true
	case KindFloat:
		return v.F64, true
	default:
		return 0, false
	}
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the array items if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// Get returns the named property of an object Value.
func (v Value) Get(name string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	i, ok := slices.BinarySearchFunc(v.O, name, func(f Field, n string) int {
		return strings.Compare(f.Name, n)
	})
	if !ok {
		return Value{}, false
	}
	return v.O[i].Value, true
}

// With returns a copy of the object v with the named property set.
// The receiver's field slice is not modified.
func (v Value) With(name string, val Value) Value {
	if v.Kind != KindObject {
		return Object(F(name, val))
	}
	out := make([]Field, len(v.O), len(v.O)+1)
	copy(out, v.O)
	return Value{Kind: KindObject, O: setField(out, name, val)}
}

func setField(fields []Field, name string, val Value) []Field {
	i, ok := slices.BinarySearchFunc(fields, name, func(f Field, n string) int {
		return strings.Compare(f.Name, n)
	})
	if ok {
		fields[i].Value = val
		return fields
	}
	return slices.Insert(fields, i, Field{Name: name, Value: val})
}

// Clone creates a deep copy of the value.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindArray:
		items := make([]Value, len(v.A))
		for i := range v.A {
			items[i] = v.A[i].Clone()
		}
		return Value{Kind: KindArray, A: items}
	case KindObject:
		fields := make([]Field, len(v.O))
		for i := range v.O {
			fields[i] = Field{Name: v.O[i].Name, Value: v.O[i].Value.Clone()}
		}
		return Value{Kind: KindObject, O: fields}
	default:
		return v
	}
}

// Equal reports whether a and b are structurally equal. Integers and floats
// holding the same number are equal.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }
