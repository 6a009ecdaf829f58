package combine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/combine/doc"
	"github.com/hupe1980/combine/internal/fs"
	"github.com/hupe1980/combine/internal/memtable"
	"github.com/hupe1980/combine/internal/resource"
	"github.com/hupe1980/combine/spill"
)

type state int

const (
	stateAccepting state = iota
	stateDraining
	stateDone
	stateClosed
)

// Stats is a snapshot of a Combiner's progress.
type Stats struct {
	Added      int   // documents accepted by Add
	InMemory   int   // distinct keys currently held in memory
	Segments   int   // sorted runs written to the spill file
	SpillBytes int64 // bytes written to the spill file
	Emitted    int   // documents handed to sinks
}

// counters back Stats. They are atomic so a sink may read them while
// DrainWhile holds the Combiner's lock.
type counters struct {
	added      atomic.Int64
	inMemory   atomic.Int64
	segments   atomic.Int64
	spillBytes atomic.Int64
	emitted    atomic.Int64
}

// Combiner accepts an unbounded stream of documents and emits them reduced
// per (binding, key) in ascending order. It is safe for concurrent use, but
// DrainWhile calls are serialized with each other and with Add.
type Combiner struct {
	mu     sync.Mutex
	spec   *spill.Spec
	opts   options
	rc     *resource.Controller
	mem    *memtable.Memtable
	ctx    context.Context
	cancel context.CancelFunc
	state  state
	stats  counters
	err    error // sticky failure of a spill or drain

	file    fs.File
	writer  *spill.Writer
	drainer *spill.Drainer

	// In-memory drain when nothing was spilled.
	pending []doc.Document
}

// New creates a Combiner for spec.
func New(spec *spill.Spec, optFns ...Option) (*Combiner, error) {
	if spec == nil {
		return nil, errors.New("combine: spec is required")
	}
	opts := applyOptions(optFns)
	if !opts.chunkSize.Valid() {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidChunkSize, opts.chunkSize.Lo, opts.chunkSize.Hi)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Combiner{
		spec: spec,
		opts: opts,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   opts.memoryLimit,
			IOLimitBytesPerSec: opts.ioLimit,
		}),
		mem:    memtable.New(spec),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Add validates d against its binding's schema and reduces it into the
// document already held for its key, if any. When the memory budget is
// exhausted the held documents are spilled as a sorted run first.
//
// The Combiner retains d.Root; callers must not modify it afterwards.
func (c *Combiner) Add(ctx context.Context, d doc.Document) (err error) {
	start := time.Now()
	defer func() {
		c.opts.metricsCollector.RecordAdd(time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == stateClosed:
		return ErrClosed
	case c.err != nil:
		return c.err
	case c.state != stateAccepting:
		return ErrDraining
	}

	if err := c.spec.Validate(d); err != nil {
		return translateError(err)
	}

	size, err := d.EncodedSize()
	if err != nil {
		return err
	}
	charge := int64(size)

	if err := c.rc.AcquireMemory(charge); err != nil {
		if !isMemoryLimit(err) {
			return err
		}
		if err := c.spill(ctx); err != nil {
			return err
		}
		if err := c.rc.AcquireMemory(charge); err != nil {
			// Larger than the whole budget: held uncharged until the next
			// spill, like a single oversized chunk.
			charge = 0
		}
	}

	if err := c.mem.Add(d, charge); err != nil {
		c.rc.ReleaseMemory(charge)
		return translateError(err)
	}
	c.stats.added.Add(1)
	c.stats.inMemory.Store(int64(c.mem.Len()))
	return nil
}

// spill writes the in-memory documents as one sorted run.
func (c *Combiner) spill(ctx context.Context) (err error) {
	docs, charged := c.mem.Drain()
	defer c.rc.ReleaseMemory(charged)
	c.stats.inMemory.Store(0)
	if len(docs) == 0 {
		return nil
	}

	if c.writer == nil {
		if err := c.openSpillFile(); err != nil {
			c.err = err
			return err
		}
	}

	start := time.Now()
	n, err := c.writer.WriteSegment(docs, c.opts.chunkSize)
	c.opts.metricsCollector.RecordSpill(len(docs), n, time.Since(start), err)
	c.opts.logger.LogSpill(ctx, int(c.stats.segments.Load()), len(docs), n, err)
	if err != nil {
		c.err = translateError(err)
		return c.err
	}
	c.stats.segments.Add(1)
	c.stats.spillBytes.Add(n)
	return nil
}

func (c *Combiner) openSpillFile() error {
	if err := c.opts.fs.MkdirAll(c.opts.spillDir, 0o755); err != nil {
		return fmt.Errorf("%w: create spill dir: %w", ErrIO, err)
	}
	f, err := c.opts.fs.CreateTemp(c.opts.spillDir, "combine-spill-*")
	if err != nil {
		return fmt.Errorf("%w: create spill file: %w", ErrIO, err)
	}
	w, err := spill.NewWriter(f,
		spill.WithCompression(c.opts.compression),
		spill.WithResources(c.rc),
		spill.WithContext(c.ctx),
		spill.WithLogger(c.opts.logger.Logger),
	)
	if err != nil {
		_ = f.Close()
		_ = c.opts.fs.Remove(f.Name())
		return translateError(err)
	}
	c.file, c.writer = f, w
	return nil
}

// DrainWhile emits reduced documents to sink in ascending (binding, key)
// order until sink returns false, an error occurs, or every document has
// been emitted. It returns true while documents remain. The first call ends
// the Add phase.
//
// Every error is fatal for the Combiner. An error returned by sink is
// returned unchanged; all others are normalized (see the package errors).
//
// sink runs with the Combiner locked: it may call Stats, but calling Add,
// DrainWhile or Close from sink deadlocks.
func (c *Combiner) DrainWhile(ctx context.Context, sink spill.Sink) (more bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == stateClosed:
		return false, ErrClosed
	case c.err != nil:
		return false, c.err
	case c.state == stateDone:
		return false, nil
	case c.state == stateAccepting:
		c.state = stateDraining
		if err := c.startDrain(ctx); err != nil {
			c.err = err
			return false, err
		}
	}

	var (
		emitted, reduced int
		sinkErr          error
		start            = time.Now()
	)
	counted := func(binding uint32, d doc.Document, wasReduced bool) (bool, error) {
		emitted++
		c.stats.emitted.Add(1)
		if wasReduced {
			reduced++
		}
		cont, err := sink(binding, d, wasReduced)
		sinkErr = err
		return cont, err
	}

	if c.drainer != nil {
		more, err = c.drainer.DrainWhile(counted)
	} else {
		more, err = c.drainPending(counted)
	}

	if err != nil {
		if sinkErr == nil || !errors.Is(err, sinkErr) {
			err = translateError(err)
		}
		c.err = err
	}
	c.opts.metricsCollector.RecordDrain(emitted, reduced, time.Since(start), err)
	c.opts.logger.LogDrain(ctx, emitted, reduced, more, err)

	if err == nil && !more {
		c.state = stateDone
	}
	return more, err
}

// startDrain spills the remainder if anything was spilled before, and
// otherwise drains straight from memory.
func (c *Combiner) startDrain(ctx context.Context) error {
	if c.writer == nil {
		docs, charged := c.mem.Drain()
		c.rc.ReleaseMemory(charged)
		c.stats.inMemory.Store(0)
		c.pending = docs
		return nil
	}

	if err := c.spill(ctx); err != nil {
		return err
	}
	file, ranges := c.writer.IntoParts()
	c.writer = nil

	d, err := spill.NewDrainer(c.spec, file, ranges,
		spill.WithCompression(c.opts.compression),
		spill.WithResources(c.rc),
		spill.WithLogger(c.opts.logger.Logger),
	)
	if err != nil {
		return translateError(err)
	}
	c.drainer = d
	return nil
}

func (c *Combiner) drainPending(sink spill.Sink) (bool, error) {
	for len(c.pending) > 0 {
		d := c.pending[0]
		c.pending[0] = doc.Document{}
		c.pending = c.pending[1:]

		cont, err := sink(d.Binding, d, d.Reduced())
		if err != nil {
			return false, err
		}
		if !cont {
			return len(c.pending) > 0, nil
		}
	}
	return false, nil
}

// Stats returns a snapshot of the Combiner's progress. It does not take the
// Combiner's lock and may be called from a sink.
func (c *Combiner) Stats() Stats {
	return Stats{
		Added:      int(c.stats.added.Load()),
		InMemory:   int(c.stats.inMemory.Load()),
		Segments:   int(c.stats.segments.Load()),
		SpillBytes: c.stats.spillBytes.Load(),
		Emitted:    int(c.stats.emitted.Load()),
	}
}

// Close releases held memory and removes the spill file. It is idempotent.
func (c *Combiner) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed
	c.cancel()

	_, charged := c.mem.Drain()
	c.rc.ReleaseMemory(charged)
	c.stats.inMemory.Store(0)
	c.pending = nil

	if c.drainer != nil {
		c.drainer.IntoParts()
		c.drainer = nil
	}
	c.writer = nil

	var firstErr error
	if c.file != nil {
		if err := c.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := c.opts.fs.Remove(c.file.Name()); err != nil && firstErr == nil {
			firstErr = err
		}
		c.file = nil
	}
	return firstErr
}
