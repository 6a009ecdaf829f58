package queue

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_MinOrder(t *testing.T) {
	h := New(func(a, b int) bool { return a < b }, 0)

	rng := rand.New(rand.NewSource(1))
	want := make([]int, 200)
	for i := range want {
		want[i] = rng.Intn(50)
		h.Push(want[i])
	}
	slices.Sort(want)

	top, ok := h.Top()
	require.True(t, ok)
	assert.Equal(t, want[0], top)
	assert.Equal(t, want, h.Drain())
	assert.Equal(t, 0, h.Len())
}

func TestHeap_InvertedComparator(t *testing.T) {
	h := New(func(a, b int) bool { return a > b }, 4)
	for _, v := range []int{3, 9, 1, 7} {
		h.Push(v)
	}
	assert.Equal(t, []int{9, 7, 3, 1}, h.Drain())
}

func TestHeap_TieBreakByComparator(t *testing.T) {
	type item struct{ key, seq int }
	h := New(func(a, b item) bool {
		if a.key != b.key {
			return a.key < b.key
		}
		return a.seq < b.seq
	}, 0)

	for _, it := range []item{{1, 2}, {0, 5}, {1, 0}, {1, 1}} {
		h.Push(it)
	}
	assert.Equal(t, []item{{0, 5}, {1, 0}, {1, 1}, {1, 2}}, h.Drain())
}

func TestHeap_Empty(t *testing.T) {
	h := New(func(a, b string) bool { return a < b }, 0)
	_, ok := h.Pop()
	assert.False(t, ok)
	_, ok = h.Top()
	assert.False(t, ok)

	h.Push("x")
	h.Reset()
	assert.Equal(t, 0, h.Len())
}
