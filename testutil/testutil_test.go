package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/combine/doc"
)

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(42).Stream(50, 10, 2)
	r := NewRNG(42)
	b := r.Stream(50, 10, 2)
	require.Len(t, b, 50)
	for i := range a {
		assert.Equal(t, GroupOf(a[i]), GroupOf(b[i]))
	}

	r.Reset()
	c := r.Stream(50, 10, 2)
	assert.Equal(t, GroupOf(a[7]), GroupOf(c[7]))
	assert.Equal(t, uint64(42), r.Seed())
}

func TestRuns(t *testing.T) {
	runs := NewRNG(1).Runs(4, 30, 20, 2)
	require.Len(t, runs, 4)
	for _, run := range runs {
		for i := 1; i < len(run); i++ {
			prev, cur := GroupOf(run[i-1]), GroupOf(run[i])
			less := prev.Binding < cur.Binding || (prev.Binding == cur.Binding && prev.Key < cur.Key)
			assert.True(t, less, "strictly ascending, unique groups")
		}
	}
}

func TestAppended(t *testing.T) {
	docs := []doc.Document{Document(0, "a", 1), Document(0, "b", 2), Document(0, "a", 3)}
	want := map[Group][]int64{
		{Binding: 0, Key: "a"}: {1, 3},
		{Binding: 0, Key: "b"}: {2},
	}
	assert.Equal(t, want, Appended(docs))
}
