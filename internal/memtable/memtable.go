// Package memtable accumulates documents in (binding, key) order, reducing
// duplicates in place, until they are flushed as a sorted run.
package memtable

import (
	"cmp"

	"github.com/zhangyunhao116/skipmap"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/internal/arena"
	"github.com/hupe1980/combine/key"
	"github.com/hupe1980/combine/spill"
)

type entryKey struct {
	binding uint32
	key     []doc.Value
}

func lessKey(a, b entryKey) bool {
	if c := cmp.Compare(a.binding, b.binding); c != 0 {
		return c < 0
	}
	return key.CompareTuples(a.key, b.key) < 0
}

type entry struct {
	doc doc.Document
}

type orderedSet = skipmap.FuncMap[entryKey, *entry]

// Stats counts the work done since the last Drain.
type Stats struct {
	Docs       int   // distinct (binding, key) entries
	Added      int   // documents added
	Reductions int   // in-place reductions
	Charged    int64 // bytes charged by callers
}

// Memtable is a sorted, reducing document buffer. It is not safe for
// concurrent writers; the combiner serializes access.
type Memtable struct {
	spec    *spill.Spec
	entries *orderedSet
	scratch *arena.Arena
	stats   Stats
}

// New creates an empty Memtable.
func New(spec *spill.Spec) *Memtable {
	m := &Memtable{spec: spec}
	m.reset()
	return m
}

func (m *Memtable) reset() {
	m.entries = skipmap.NewFunc[entryKey, *entry](lessKey)
	if m.scratch != nil {
		m.scratch.Free()
	}
	m.scratch = arena.New()
	m.stats = Stats{}
}

// Add inserts d, reducing it into an existing document of the same
// (binding, key). A reduced document is re-validated. charge is the number of
// bytes the caller accounted for d; it is reported back by Drain.
//
// The Memtable retains d.Root.
func (m *Memtable) Add(d doc.Document, charge int64) error {
	b, err := m.spec.Binding(d.Binding)
	if err != nil {
		return err
	}
	k := entryKey{binding: d.Binding, key: b.Key.Extract(d.Root)}

	e, loaded := m.entries.LoadOrStore(k, &entry{doc: d})
	if loaded {
		root, flags, err := m.spec.Reducer().Reduce(m.scratch, d.Binding, e.doc.Root, e.doc.Flags, d.Root, d.Flags, b.Schema)
		if err != nil {
			return &spill.ReductionError{Binding: d.Binding, Key: k.key, Err: err}
		}
		reduced := doc.Document{Binding: d.Binding, Flags: combinedFlags(flags, e.doc.Flags|d.Flags), Root: root}
		if err := m.spec.Validate(reduced); err != nil {
			return err
		}
		e.doc = reduced
		m.stats.Reductions++
	} else {
		m.stats.Docs++
	}
	m.stats.Added++
	m.stats.Charged += charge
	return nil
}

// combinedFlags marks an in-memory reduction with FlagCombined and keeps
// FlagReduced only when an input carried it. Runs spilled later would
// otherwise take precedence over earlier runs of the same key.
func combinedFlags(out, in doc.Flags) doc.Flags {
	return out&^doc.FlagReduced | in&doc.FlagReduced | doc.FlagCombined
}

// Len returns the number of distinct (binding, key) entries.
func (m *Memtable) Len() int { return m.stats.Docs }

// Stats returns the counters since the last Drain.
func (m *Memtable) Stats() Stats { return m.stats }

// Drain returns all documents in ascending (binding, key) order with at most
// one document per key, together with the total bytes charged, and empties
// the Memtable.
func (m *Memtable) Drain() ([]doc.Document, int64) {
	out := make([]doc.Document, 0, m.stats.Docs)
	m.entries.Range(func(_ entryKey, e *entry) bool {
		out = append(out, e.doc)
		return true
	})
	charged := m.stats.Charged
	m.reset()
	return out, charged
}
