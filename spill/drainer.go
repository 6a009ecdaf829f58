package spill

import (
	"log/slog"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/internal/arena"
	"github.com/hupe1980/combine/internal/fs"
	"github.com/hupe1980/combine/internal/queue"
)

// Sink receives drained documents in ascending (binding, key) order.
// reduced reports d.Reduced(): whether d results from a reduction, in
// memory before spilling or while draining. Returning false pauses
// the drain; a non-nil error aborts it and is returned unchanged by
// DrainWhile.
//
// d may reference scratch storage of the merge group and must be cloned if
// retained beyond the call.
type Sink func(binding uint32, d doc.Document, reduced bool) (bool, error)

// DrainStats counts the work done by a Drainer.
type DrainStats struct {
	Emitted    int
	Reduced    int // emitted documents that needed a drain-time reduction
	Reductions int // individual Reducer invocations
}

// Drainer merges all segments of a spill file.
type Drainer struct {
	spec   *Spec
	file   fs.File
	ranges []Range
	opts   Options
	heap   *queue.Heap[*Segment]
	stats  DrainStats

	// err is sticky: after any failure the heap may be inconsistent.
	err error
}

// NewDrainer opens a cursor per range and takes ownership of file.
func NewDrainer(spec *Spec, file fs.File, ranges []Range, opts ...Option) (*Drainer, error) {
	o := buildOptions(opts)
	d := &Drainer{spec: spec, file: file, ranges: ranges, opts: o}
	d.heap = queue.New(d.less, len(ranges))

	if err := fs.AdviseSequential(file); err != nil {
		o.Logger.Debug("sequential read advice failed", slog.Any("error", err))
	}

	for _, rng := range ranges {
		seg, err := NewSegment(spec, file, rng, o.Compression)
		if err != nil {
			return nil, err
		}
		if err := d.push(seg); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Drainer) less(a, b *Segment) bool {
	c, err := CompareSegments(a, b)
	if err != nil && d.err == nil {
		d.err = err
	}
	return c < 0
}

func (d *Drainer) push(seg *Segment) error {
	d.heap.Push(seg)
	return d.err
}

func (d *Drainer) pop() (*Segment, error) {
	seg, _ := d.heap.Pop()
	return seg, d.err
}

// DrainWhile emits documents to sink until sink asks to pause, an error
// occurs, or the spill file is exhausted. It returns true while documents
// remain; a later call resumes exactly where the previous one stopped.
//
// All errors are fatal for the Drainer.
func (d *Drainer) DrainWhile(sink Sink) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	more, err := d.drainWhile(sink)
	if err != nil {
		d.err = err
		return false, err
	}
	return more, nil
}

func (d *Drainer) drainWhile(sink Sink) (bool, error) {
	for d.heap.Len() > 0 {
		cur, err := d.pop()
		if err != nil {
			return false, err
		}
		head := cur.Head()

		binding, err := d.spec.Binding(head.Binding)
		if err != nil {
			return false, err
		}
		acc, err := head.Document()
		if err != nil {
			return false, corruptError("document at segment %d: %v", cur.begin, err)
		}

		scratch := arena.New(arena.WithMemoryAcquirer(d.opts.Memory))
		reduced, err := d.reduceTies(scratch, head, binding, &acc)
		if err == nil && reduced {
			err = d.spec.Validate(acc)
		}
		if err != nil {
			scratch.Free()
			return false, err
		}

		d.stats.Emitted++
		if reduced {
			d.stats.Reduced++
		}
		cont, err := sink(head.Binding, acc, acc.Reduced())
		scratch.Free()
		if err != nil {
			return false, err
		}

		next, err := cur.Next(d.file)
		if err != nil {
			return false, err
		}
		if next != nil {
			if err := d.push(next); err != nil {
				return false, err
			}
		}

		if !cont {
			return d.heap.Len() > 0, nil
		}
	}

	d.opts.Logger.Debug("spill drained",
		slog.Int("emitted", d.stats.Emitted),
		slog.Int("reduced", d.stats.Reduced),
	)
	return false, nil
}

// reduceTies folds every segment whose head ties with head on (binding, key)
// into acc, in segment order, and advances those segments.
func (d *Drainer) reduceTies(scratch *arena.Arena, head doc.Archived, binding *Binding, acc *doc.Document) (bool, error) {
	reduced := false
	// Only an input's FlagReduced gives the accumulator precedence; the
	// flag set by drain-time reductions does not.
	prec := acc.Flags & doc.FlagReduced
	for {
		top, ok := d.heap.Top()
		if !ok {
			return reduced, nil
		}
		c, err := d.spec.CompareArchived(head, top.Head())
		if err != nil {
			return reduced, err
		}
		if c != 0 {
			return reduced, nil
		}
		if _, err := d.pop(); err != nil {
			return reduced, err
		}

		rhs := top.Head()
		rhsRoot, err := rhs.Root()
		if err != nil {
			return reduced, corruptError("document at segment %d: %v", top.begin, err)
		}
		lhsFlags := acc.Flags&^doc.FlagReduced | prec
		root, flags, err := d.spec.reducer.Reduce(scratch, head.Binding, acc.Root, lhsFlags, rhsRoot, rhs.Flags, binding.Schema)
		if err != nil {
			return reduced, &ReductionError{Binding: head.Binding, Key: binding.Key.Extract(acc.Root), Err: err}
		}
		acc.Root, acc.Flags = root, flags
		prec |= rhs.Flags & doc.FlagReduced
		reduced = true
		d.stats.Reductions++

		next, err := top.Next(d.file)
		if err != nil {
			return reduced, err
		}
		if next != nil {
			if err := d.push(next); err != nil {
				return reduced, err
			}
		}
	}
}

// Stats returns the drainer's counters.
func (d *Drainer) Stats() DrainStats { return d.stats }

// IntoParts releases the spill file and the Spec. The Drainer must not be
// used afterwards.
func (d *Drainer) IntoParts() (fs.File, *Spec) {
	file, spec := d.file, d.spec
	d.file, d.spec = nil, nil
	d.heap.Reset()
	d.err = ErrReleased
	return file, spec
}
