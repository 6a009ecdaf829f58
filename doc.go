// Package combine groups an unbounded stream of keyed documents, reduces
// documents sharing a key according to their schema, and emits one document
// per key in ascending key order, within a bounded memory budget.
//
// Documents are accumulated and reduced in memory. When the memory budget is
// exhausted the in-memory documents are written to a temporary spill file as
// a sorted run. Draining performs an external k-way merge over all runs.
//
// # Quick Start
//
//	s, _ := schema.ParseJSON([]byte(`{
//	    "reduce": {"strategy": "merge"},
//	    "properties": {"v": {"reduce": {"strategy": "append"}}}
//	}`))
//	spec := spill.MustNewSpec(nil, spill.Binding{Key: key.MustNew("/key"), Schema: s})
//
//	c, _ := combine.New(spec,
//	    combine.WithMemoryLimit(64<<20),
//	    combine.WithSpillDir(os.TempDir()),
//	)
//	defer c.Close()
//
//	for _, d := range docs {
//	    if err := c.Add(ctx, d); err != nil {
//	        return err
//	    }
//	}
//
//	for more := true; more; {
//	    more, err = c.DrainWhile(ctx, func(binding uint32, d doc.Document, reduced bool) (bool, error) {
//	        return true, publish(d)
//	    })
//	    if err != nil {
//	        return err
//	    }
//	}
//
// # Pause and Resume
//
// A sink returning false pauses the drain. The next DrainWhile call resumes
// with the following key. DrainWhile returns false once every document has
// been emitted.
//
// # Errors
//
// Errors from the engine are normalized into ErrCorrupt, ErrIO,
// ErrInvalidDocument, ErrReduction and ErrSchema; the typed errors of the
// spill and schema packages remain reachable via errors.As. Errors returned
// by a sink are passed through unchanged.
package combine
