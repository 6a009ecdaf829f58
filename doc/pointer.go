package doc

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a parsed JSON pointer (RFC 6901) addressing a location within a
// document. The empty Pointer addresses the document root.
type Pointer []string

// ParsePointer parses a JSON pointer such as "/key" or "/a/b/0".
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("json pointer %q must begin with '/'", s)
	}
	parts := strings.Split(s[1:], "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return Pointer(parts), nil
}

// MustParsePointer is like ParsePointer but panics on error.
func MustParsePointer(s string) Pointer {
	p, err := ParsePointer(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pointer in its escaped textual form.
func (p Pointer) String() string {
	var sb strings.Builder
	for _, tok := range p {
		sb.WriteByte('/')
		tok = strings.ReplaceAll(tok, "~", "~0")
		sb.WriteString(strings.ReplaceAll(tok, "/", "~1"))
	}
	return sb.String()
}

// Query resolves the pointer against v.
func (p Pointer) Query(v Value) (Value, bool) {
	for _, tok := range p {
		switch v.Kind {
		case KindObject:
			next, ok := v.Get(tok)
			if !ok {
				return Value{}, false
			}
			v = next
		case KindArray:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(v.A) {
				return Value{}, false
			}
			v = v.A[idx]
		default:
			return Value{}, false
		}
	}
	return v, true
}
