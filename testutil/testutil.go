package testutil

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/hupe1980/combine/doc"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Key returns the key string of key index i.
func Key(i int) string { return fmt.Sprintf("k%04d", i) }

// Group identifies the documents that combine into one.
type Group struct {
	Binding uint32
	Key     string
}

// GroupOf returns the group of d, which must have a string "/key".
func GroupOf(d doc.Document) Group {
	k, _ := d.Root.Get("key")
	return Group{Binding: d.Binding, Key: k.S}
}

// Document builds {"key": key, "v": [seq]}.
func Document(binding uint32, key string, seq int) doc.Document {
	return doc.New(binding, doc.Object(
		doc.F("key", doc.String(key)),
		doc.F("v", doc.Array(doc.Int(int64(seq)))),
	))
}

// Stream returns n documents over keySpace keys and the given number of
// bindings, in random order. Sequence numbers increase along the stream.
func (r *RNG) Stream(n, keySpace, bindings int) []doc.Document {
	out := make([]doc.Document, n)
	for i := range out {
		out[i] = Document(uint32(r.IntN(bindings)), Key(r.IntN(keySpace)), i)
	}
	return out
}

// Runs returns sorted runs with at most one document per group each. Run i
// holds documents with sequence number i, so that reducing them in write
// order yields ascending "v" arrays.
func (r *RNG) Runs(runs, perRun, keySpace, bindings int) [][]doc.Document {
	out := make([][]doc.Document, runs)
	for i := range out {
		seen := map[Group]bool{}
		var docs []doc.Document
		for range perRun {
			d := Document(uint32(r.IntN(bindings)), Key(r.IntN(keySpace)), i)
			if g := GroupOf(d); !seen[g] {
				seen[g] = true
				docs = append(docs, d)
			}
		}
		Sort(docs)
		out[i] = docs
	}
	return out
}

// Sort orders docs by binding, then key.
func Sort(docs []doc.Document) {
	slices.SortStableFunc(docs, func(a, b doc.Document) int {
		ga, gb := GroupOf(a), GroupOf(b)
		if c := cmp.Compare(ga.Binding, gb.Binding); c != 0 {
			return c
		}
		return cmp.Compare(ga.Key, gb.Key)
	})
}

// Appended returns, per group, the "v" items of docs concatenated in order:
// the expected result of combining docs under an append reduction.
func Appended(docs ...[]doc.Document) map[Group][]int64 {
	out := map[Group][]int64{}
	for _, run := range docs {
		for _, d := range run {
			g := GroupOf(d)
			v, _ := d.Root.Get("v")
			for _, item := range v.A {
				out[g] = append(out[g], item.I64)
			}
		}
	}
	return out
}

// Ints returns the integer items of an array value.
func Ints(v doc.Value) []int64 {
	out := make([]int64, 0, len(v.A))
	for _, item := range v.A {
		out = append(out, item.I64)
	}
	return out
}
