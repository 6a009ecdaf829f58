package doc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is returned when an encoded value cannot be parsed.
var ErrMalformed = errors.New("doc: malformed encoding")

// AppendValue appends the compact binary encoding of v to buf.
//
// Layout: one kind byte followed by a kind-specific payload. Object fields
// are written in sorted order, so equal values always encode identically.
func AppendValue(buf []byte, v Value) ([]byte, error) {
	buf = append(buf, byte(v.Kind))

	switch v.Kind {
	case KindNull:
		// No payload
	case KindBool:
		if v.B {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindInt:
		buf = binary.AppendVarint(buf, v.I64)
	case KindFloat:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.F64))
	case KindString:
		buf = binary.AppendUvarint(buf, uint64(len(v.S)))
		buf = append(buf, v.S...)
	case KindArray:
		buf = binary.AppendUvarint(buf, uint64(len(v.A)))
		for _, item := range v.A {
			var err error
			if buf, err = AppendValue(buf, item); err != nil {
				return nil, err
			}
		}
	case KindObject:
		buf = binary.AppendUvarint(buf, uint64(len(v.O)))
		for _, f := range v.O {
			buf = binary.AppendUvarint(buf, uint64(len(f.Name)))
			buf = append(buf, f.Name...)
			var err error
			if buf, err = AppendValue(buf, f.Value); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("doc: cannot encode value of kind %d", v.Kind)
	}
	return buf, nil
}

// ParseValue decodes one value from data and returns the remaining bytes.
func ParseValue(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Value{}, nil, fmt.Errorf("%w: short buffer for value kind", ErrMalformed)
	}
	v := Value{Kind: Kind(data[0])}
	data = data[1:]

	switch v.Kind {
	case KindNull:
		// No payload
	case KindBool:
		if len(data) == 0 {
			return v, nil, fmt.Errorf("%w: short buffer for bool", ErrMalformed)
		}
		v.B = data[0] != 0
		data = data[1:]
	case KindInt:
		i, n := binary.Varint(data)
		if n <= 0 {
			return v, nil, fmt.Errorf("%w: invalid int value", ErrMalformed)
		}
		v.I64 = i
		data = data[n:]
	case KindFloat:
		if len(data) < 8 {
			return v, nil, fmt.Errorf("%w: short buffer for float", ErrMalformed)
		}
		v.F64 = math.Float64frombits(binary.LittleEndian.Uint64(data))
		data = data[8:]
	case KindString:
		s, rest, err := parseString(data)
		if err != nil {
			return v, nil, err
		}
		v.S = s
		data = rest
	case KindArray:
		n, rest, err := parseCount(data)
		if err != nil {
			return v, nil, err
		}
		data = rest
		v.A = make([]Value, n)
		for i := range v.A {
			if v.A[i], data, err = ParseValue(data); err != nil {
				return v, nil, err
			}
		}
	case KindObject:
		n, rest, err := parseCount(data)
		if err != nil {
			return v, nil, err
		}
		data = rest
		v.O = make([]Field, n)
		for i := range v.O {
			if v.O[i].Name, data, err = parseString(data); err != nil {
				return v, nil, err
			}
			if v.O[i].Value, data, err = ParseValue(data); err != nil {
				return v, nil, err
			}
		}
	default:
		return v, nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, v.Kind)
	}
	return v, data, nil
}

// SkipValue returns data with the leading encoded value removed, without
// decoding it.
func SkipValue(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: short buffer for value kind", ErrMalformed)
	}
	kind := Kind(data[0])
	data = data[1:]

	switch kind {
	case KindNull:
		return data, nil
	case KindBool:
		if len(data) < 1 {
			return nil, fmt.Errorf("%w: short buffer for bool", ErrMalformed)
		}
		return data[1:], nil
	case KindInt:
		_, n := binary.Varint(data)
		if n <= 0 {
			return nil, fmt.Errorf("%w: invalid int value", ErrMalformed)
		}
		return data[n:], nil
	case KindFloat:
		if len(data) < 8 {
			return nil, fmt.Errorf("%w: short buffer for float", ErrMalformed)
		}
		return data[8:], nil
	case KindString:
		_, rest, err := parseString(data)
		return rest, err
	case KindArray:
		n, rest, err := parseCount(data)
		if err != nil {
			return nil, err
		}
		for range n {
			if rest, err = SkipValue(rest); err != nil {
				return nil, err
			}
		}
		return rest, nil
	case KindObject:
		n, rest, err := parseCount(data)
		if err != nil {
			return nil, err
		}
		for range n {
			if _, rest, err = parseString(rest); err != nil {
				return nil, err
			}
			if rest, err = SkipValue(rest); err != nil {
				return nil, err
			}
		}
		return rest, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, kind)
	}
}

// LookupEncoded resolves ptr against an encoded value and decodes only the
// addressed sub-value.
func LookupEncoded(data []byte, ptr Pointer) (Value, bool, error) {
	for _, tok := range ptr {
		if len(data) == 0 {
			return Value{}, false, fmt.Errorf("%w: short buffer for value kind", ErrMalformed)
		}
		kind := Kind(data[0])
		n, rest, err := parseCount(data[1:])

		switch kind {
		case KindObject:
			if err != nil {
				return Value{}, false, err
			}
			found := false
			for range n {
				var name string
				if name, rest, err = parseString(rest); err != nil {
					return Value{}, false, err
				}
				c := strings.Compare(name, tok)
				if c == 0 {
					found = true
					break
				}
				if c > 0 {
					return Value{}, false, nil
				}
				if rest, err = SkipValue(rest); err != nil {
					return Value{}, false, err
				}
			}
			if !found {
				return Value{}, false, nil
			}
			data = rest
		case KindArray:
			if err != nil {
				return Value{}, false, err
			}
			idx, aerr := strconv.ParseUint(tok, 10, 64)
			if aerr != nil || idx >= n {
				return Value{}, false, nil
			}
			for range idx {
				if rest, err = SkipValue(rest); err != nil {
					return Value{}, false, err
				}
			}
			data = rest
		default:
			return Value{}, false, nil
		}
	}
	v, _, err := ParseValue(data)
	if err != nil {
		return Value{}, false, err
	}
	return v, true, nil
}

func parseCount(data []byte) (uint64, []byte, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return 0, nil, fmt.Errorf("%w: invalid length", ErrMalformed)
	}
	// Every element occupies at least one byte.
	if n > uint64(len(data)-k) {
		return 0, nil, fmt.Errorf("%w: length %d exceeds buffer", ErrMalformed, n)
	}
	return n, data[k:], nil
}

func parseString(data []byte) (string, []byte, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return "", nil, fmt.Errorf("%w: invalid string length", ErrMalformed)
	}
	data = data[k:]
	if uint64(len(data)) < n {
		return "", nil, fmt.Errorf("%w: short buffer for string", ErrMalformed)
	}
	return string(data[:n]), data[n:], nil
}
