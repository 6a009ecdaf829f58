package doc

import (
	"cmp"
	"math"
	"strings"
)

// rank orders kinds: null < boolean < number < string < array < object.
func rank(k Kind) int {
	switch k {
	case KindNull:
		return 1
	case KindBool:
		return 2
	case KindInt, KindFloat:
		return 3
	case KindString:
		return 4
	case KindArray:
		return 5
	case KindObject:
		return 6
	default:
		return 0
	}
}

// Compare defines a total order over values. It returns -1, 0 or +1.
//
// Values of different kinds order by kind rank. Numbers compare numerically
// regardless of integer or float representation. Arrays compare element-wise,
// then by length. Objects compare by sorted (name, value) pairs.
func Compare(a, b Value) int {
	ra, rb := rank(a.Kind), rank(b.Kind)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch a.Kind {
	case KindNull, KindInvalid:
		return 0
	case KindBool:
		switch {
		case a.B == b.B:
			return 0
		case !a.B:
			return -1
		default:
			return 1
		}
	case KindInt, KindFloat:
		return compareNumber(a, b)
	case KindString:
		return strings.Compare(a.S, b.S)
	case KindArray:
		n := min(len(a.A), len(b.A))
		for i := 0; i < n; i++ {
			if c := Compare(a.A[i], b.A[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.A), len(b.A))
	case KindObject:
		n := min(len(a.O), len(b.O))
		for i := 0; i < n; i++ {
			if c := strings.Compare(a.O[i].Name, b.O[i].Name); c != 0 {
				return c
			}
			if c := Compare(a.O[i].Value, b.O[i].Value); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.O), len(b.O))
	}
	return 0
}

func compareNumber(a, b Value) int {
	if a.Kind == KindInt && b.Kind == KindInt {
		return cmp.Compare(a.I64, b.I64)
	}
	if a.Kind == KindFloat && b.Kind == KindFloat {
		return cmp.Compare(a.F64, b.F64)
	}
	if a.Kind == KindInt {
		return -compareFloatInt(b.F64, a.I64)
	}
	return compareFloatInt(a.F64, b.I64)
}

// compareFloatInt compares f against i without losing int64 precision.
func compareFloatInt(f float64, i int64) int {
	if math.IsNaN(f) {
		return -1
	}
	if f < -(1 << 63) {
		return -1
	}
	if f >= 1<<63 {
		return 1
	}
	t := math.Trunc(f)
	if c := cmp.Compare(int64(t), i); c != 0 {
		return c
	}
	return cmp.Compare(f, t)
}
