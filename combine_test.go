package combine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/internal/fs"
	"github.com/hupe1980/combine/key"
	"github.com/hupe1980/combine/schema"
	"github.com/hupe1980/combine/spill"
	"github.com/hupe1980/combine/testutil"
)

const testSchema = `{
	"type": "object",
	"reduce": {"strategy": "merge"},
	"required": ["key"],
	"properties": {
		"key": {"type": "string"},
		"v":   {"type": "array", "reduce": {"strategy": "append"}},
		"n":   {"type": "integer", "maximum": 100, "reduce": {"strategy": "sum"}}
	}
}`

func testSpec(t *testing.T) *spill.Spec {
	t.Helper()
	s, err := schema.ParseJSON([]byte(testSchema))
	require.NoError(t, err)
	return spill.MustNewSpec(nil, spill.Binding{Key: key.MustNew("/key"), Schema: s})
}

func newCombiner(t *testing.T, opts ...Option) *Combiner {
	t.Helper()
	c, err := New(testSpec(t), append([]Option{WithSpillDir(t.TempDir())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func add(t *testing.T, c *Combiner, js string) {
	t.Helper()
	require.NoError(t, c.Add(context.Background(), doc.New(0, doc.MustParseJSON(js))))
}

type result struct {
	root    doc.Value
	reduced bool
}

func drain(t *testing.T, c *Combiner) []result {
	t.Helper()
	var out []result
	more, err := c.DrainWhile(context.Background(), func(_ uint32, d doc.Document, reduced bool) (bool, error) {
		out = append(out, result{root: d.Root.Clone(), reduced: reduced})
		return true, nil
	})
	require.NoError(t, err)
	require.False(t, more)
	return out
}

// addStream adds n documents over keys k000..k{keys-1} and returns, per
// key, the expected appended values in add order.
func addStream(t *testing.T, c *Combiner, n, keys int) map[string][]int {
	t.Helper()
	want := map[string][]int{}
	for i := range n {
		k := fmt.Sprintf("k%03d", (i*7)%keys)
		add(t, c, fmt.Sprintf(`{"key":%q,"v":[%d]}`, k, i))
		want[k] = append(want[k], i)
	}
	return want
}

func assertStream(t *testing.T, want map[string][]int, got []result) {
	t.Helper()
	require.Len(t, got, len(want))
	prev := ""
	for _, r := range got {
		k, ok := r.root.Get("key")
		require.True(t, ok)
		assert.Greater(t, k.S, prev, "ascending keys")
		prev = k.S

		v, _ := r.root.Get("v")
		items := make([]int, len(v.A))
		for i, item := range v.A {
			items[i] = int(item.I64)
		}
		assert.Equal(t, want[k.S], items, "key %s", k.S)
		assert.Equal(t, len(want[k.S]) > 1, r.reduced, "key %s", k.S)
	}
}

func TestCombinerInMemory(t *testing.T) {
	c := newCombiner(t)
	want := addStream(t, c, 100, 13)

	stats := c.Stats()
	assert.Equal(t, 100, stats.Added)
	assert.Equal(t, 13, stats.InMemory)

	assertStream(t, want, drain(t, c))
	assert.Zero(t, c.Stats().Segments)
}

func TestCombinerSpills(t *testing.T) {
	for _, comp := range []Compression{CompressionZstd, CompressionLZ4} {
		t.Run(comp.String(), func(t *testing.T) {
			dir := t.TempDir()
			metrics := &BasicMetricsCollector{}
			c, err := New(testSpec(t),
				WithSpillDir(dir),
				WithMemoryLimit(400),
				WithChunkSize(64, 256),
				WithCompression(comp),
				WithMetricsCollector(metrics),
			)
			require.NoError(t, err)

			want := addStream(t, c, 500, 37)
			assert.Positive(t, c.Stats().Segments)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "one spill file")

			assertStream(t, want, drain(t, c))

			stats := metrics.GetStats()
			assert.Equal(t, int64(500), stats.AddCount)
			assert.Positive(t, stats.SpillCount)
			assert.Positive(t, stats.SpillBytes)
			assert.Equal(t, int64(37), stats.DrainEmitted)
			assert.Equal(t, int64(37), c.Stats().Emitted)

			require.NoError(t, c.Close())
			entries, err = os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "spill file removed on close")
		})
	}
}

func TestCombinerFixture(t *testing.T) {
	c := newCombiner(t, WithMemoryLimit(40))

	add(t, c, `{"key":"aaa","v":["apple"]}`)
	add(t, c, `{"key":"bbb","v":["avocado"]}`)
	add(t, c, `{"key":"bbb","v":["banana"]}`)

	got := drain(t, c)
	require.Len(t, got, 2)
	assert.True(t, doc.Equal(doc.MustParseJSON(`{"key":"aaa","v":["apple"]}`), got[0].root))
	assert.False(t, got[0].reduced)
	assert.True(t, doc.Equal(doc.MustParseJSON(`{"key":"bbb","v":["avocado","banana"]}`), got[1].root))
	assert.True(t, got[1].reduced)
}

func TestCombinerPauseResume(t *testing.T) {
	for _, limit := range []int64{0, 300} {
		t.Run(fmt.Sprint(limit), func(t *testing.T) {
			c := newCombiner(t, WithMemoryLimit(limit), WithChunkSize(64, 256))
			want := addStream(t, c, 200, 17)

			var got []result
			calls := 0
			for more := true; more; {
				calls++
				var err error
				more, err = c.DrainWhile(context.Background(), func(_ uint32, d doc.Document, reduced bool) (bool, error) {
					got = append(got, result{root: d.Root.Clone(), reduced: reduced})
					return false, nil
				})
				require.NoError(t, err)
			}
			assert.Equal(t, 17, calls)
			assertStream(t, want, got)

			more, err := c.DrainWhile(context.Background(), func(uint32, doc.Document, bool) (bool, error) {
				t.Fatal("sink called after end of stream")
				return false, nil
			})
			require.NoError(t, err)
			assert.False(t, more)
		})
	}
}

func TestCombinerLifecycle(t *testing.T) {
	c := newCombiner(t)
	add(t, c, `{"key":"a"}`)
	drain(t, c)

	err := c.Add(context.Background(), doc.New(0, doc.MustParseJSON(`{"key":"b"}`)))
	assert.ErrorIs(t, err, ErrDraining)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err = c.Add(context.Background(), doc.New(0, doc.MustParseJSON(`{"key":"b"}`)))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.DrainWhile(context.Background(), func(uint32, doc.Document, bool) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCombinerCanceledContext(t *testing.T) {
	c := newCombiner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Add(ctx, doc.New(0, doc.MustParseJSON(`{"key":"a"}`))), context.Canceled)
	_, err := c.DrainWhile(ctx, func(uint32, doc.Document, bool) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCombinerValidation(t *testing.T) {
	c := newCombiner(t)

	err := c.Add(context.Background(), doc.New(0, doc.MustParseJSON(`{"v":[1]}`)))
	assert.ErrorIs(t, err, ErrInvalidDocument)
	var fv *spill.FailedValidationError
	assert.ErrorAs(t, err, &fv)

	err = c.Add(context.Background(), doc.New(4, doc.MustParseJSON(`{"key":"a"}`)))
	assert.ErrorIs(t, err, ErrUnknownBinding)

	// The reduced document violates the maximum.
	add(t, c, `{"key":"a","n":60}`)
	err = c.Add(context.Background(), doc.New(0, doc.MustParseJSON(`{"key":"a","n":60}`)))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	// Rejected documents leave the combiner usable.
	add(t, c, `{"key":"b","n":1}`)
	assert.Len(t, drain(t, c), 2)
}

func TestCombinerDrainValidation(t *testing.T) {
	// Each document spills on its own; the violation only appears when the
	// runs are merged.
	c := newCombiner(t, WithMemoryLimit(20))
	add(t, c, `{"key":"a","n":60}`)
	add(t, c, `{"key":"b","n":1}`)
	add(t, c, `{"key":"a","n":60}`)
	require.Positive(t, c.Stats().Segments)

	_, err := c.DrainWhile(context.Background(), func(uint32, doc.Document, bool) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, again := c.DrainWhile(context.Background(), func(uint32, doc.Document, bool) (bool, error) { return true, nil })
	assert.ErrorIs(t, again, ErrInvalidDocument)
}

func TestCombinerReductionError(t *testing.T) {
	spec := spill.MustNewSpec(nil, spill.Binding{
		Key:    key.MustNew("/key"),
		Schema: schema.MustParseJSON(`{"reduce": {"strategy": "merge"}, "properties": {"v": {"reduce": {"strategy": "append"}}}}`),
	})
	c, err := New(spec, WithSpillDir(t.TempDir()))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Add(context.Background(), doc.New(0, doc.MustParseJSON(`{"key":"a","v":[1]}`))))
	err = c.Add(context.Background(), doc.New(0, doc.MustParseJSON(`{"key":"a","v":"x"}`)))
	assert.ErrorIs(t, err, ErrReduction)
}

func TestCombinerSinkError(t *testing.T) {
	for _, limit := range []int64{0, 50} {
		c := newCombiner(t, WithMemoryLimit(limit))
		addStream(t, c, 20, 5)

		sinkErr := errors.New("publish failed")
		_, err := c.DrainWhile(context.Background(), func(uint32, doc.Document, bool) (bool, error) {
			return true, sinkErr
		})
		assert.Same(t, sinkErr, err)
	}
}

func TestCombinerSpillIOError(t *testing.T) {
	fsys := fs.NewFaultyFS(nil)
	fault := fs.NoFault()
	fault.FailAfterBytes = 0
	fsys.SetFault(fault)

	c := newCombiner(t, WithFileSystem(fsys), WithMemoryLimit(30))
	add(t, c, `{"key":"a","v":[1]}`)

	var err error
	for i := 0; err == nil && i < 10; i++ {
		err = c.Add(context.Background(), doc.New(0, doc.MustParseJSON(fmt.Sprintf(`{"key":"b%d","v":[1]}`, i))))
	}
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrInjected)

	// The failure is sticky.
	assert.ErrorIs(t, c.Add(context.Background(), doc.New(0, doc.MustParseJSON(`{"key":"c"}`))), ErrIO)
}

func TestCombinerLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newCombiner(t, WithLogger(logger), WithMemoryLimit(60))
	addStream(t, c, 30, 10)
	drain(t, c)

	out := buf.String()
	assert.Contains(t, out, "spill completed")
	assert.Contains(t, out, "drain paused or completed")
	assert.Contains(t, out, "spill segment written")
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(testSpec(t), WithChunkSize(100, 10))
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))

	tests := []struct {
		in   error
		want error
	}{
		{fmt.Errorf("x: %w", spill.ErrCorruptChunk), ErrCorrupt},
		{fmt.Errorf("%w: read: %w", spill.ErrSpillIO, os.ErrClosed), ErrIO},
		{&spill.FailedValidationError{}, ErrInvalidDocument},
		{&spill.ReductionError{Err: errors.New("boom")}, ErrReduction},
		{&schema.SchemaError{Location: "/", Reason: "bad"}, ErrSchema},
	}
	for _, tt := range tests {
		got := translateError(tt.in)
		assert.ErrorIs(t, got, tt.want)
		assert.ErrorIs(t, got, tt.in)
	}

	other := errors.New("other")
	assert.Same(t, other, translateError(other))
}

func TestCombinerRandomStream(t *testing.T) {
	s := schema.MustParseJSON(testSchema)
	spec := spill.MustNewSpec(nil,
		spill.Binding{Key: key.MustNew("/key"), Schema: s},
		spill.Binding{Key: key.MustNew("/key"), Schema: s},
	)
	c, err := New(spec, WithSpillDir(t.TempDir()), WithMemoryLimit(2<<10), WithChunkSize(256, 1024))
	require.NoError(t, err)
	defer c.Close()

	docs := testutil.NewRNG(99).Stream(3000, 200, 2)
	for _, d := range docs {
		require.NoError(t, c.Add(context.Background(), d))
	}
	want := testutil.Appended(docs)
	assert.Greater(t, c.Stats().Segments, 5)

	var prev *testutil.Group
	emitted := 0
	more, err := c.DrainWhile(context.Background(), func(binding uint32, d doc.Document, _ bool) (bool, error) {
		g := testutil.GroupOf(d)
		if prev != nil {
			assert.True(t, prev.Binding < g.Binding || (prev.Binding == g.Binding && prev.Key < g.Key))
		}
		prev = &g
		v, _ := d.Root.Get("v")
		assert.Equal(t, want[g], testutil.Ints(v), "group %v", g)
		emitted++
		return true, nil
	})
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, len(want), emitted)
}

func TestCombinerStatsFromSink(t *testing.T) {
	c := newCombiner(t, WithMemoryLimit(300), WithChunkSize(64, 256))
	want := addStream(t, c, 100, 11)
	assert.Positive(t, c.Stats().Segments)

	seen := 0
	more, err := c.DrainWhile(context.Background(), func(uint32, doc.Document, bool) (bool, error) {
		seen++
		stats := c.Stats()
		assert.Equal(t, seen, stats.Emitted)
		assert.Equal(t, 100, stats.Added)
		return true, nil
	})
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, len(want), seen)
}

func TestCombinerReducedPrecedence(t *testing.T) {
	c := newCombiner(t)

	add(t, c, `{"key":"bbb","v":["banana"]}`)
	add(t, c, `{"key":"bbb","v":["blueberry"]}`)
	prior := doc.New(0, doc.MustParseJSON(`{"key":"bbb","v":["avocado"]}`))
	prior.Flags = doc.FlagReduced
	require.NoError(t, c.Add(context.Background(), prior))
	add(t, c, `{"key":"bbb","v":["cherry"]}`)

	got := drain(t, c)
	require.Len(t, got, 1)
	assert.True(t, doc.Equal(doc.MustParseJSON(`{"key":"bbb","v":["avocado","banana","blueberry","cherry"]}`), got[0].root), "got %v", got[0].root.Any())
	assert.True(t, got[0].reduced)
}
