package arena

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/combine/doc"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(amount int64) error
	ReleaseMemory(amount int64)
}

// ErrFreed is returned when allocating from a freed arena.
var ErrFreed = errors.New("arena: allocation after free")

const (
	// DefaultSlabSize is the default number of elements per slab.
	DefaultSlabSize = 256

	valueSize = int64(unsafe.Sizeof(doc.Value{}))
	fieldSize = int64(unsafe.Sizeof(doc.Field{}))
)

// Stats tracks arena memory usage.
//
//   - BytesReserved: memory reserved for slabs
//   - BytesUsed: memory handed out by allocations
//   - Slabs: number of slabs reserved
//   - Allocs: number of allocations
type Stats struct {
	BytesReserved int64
	BytesUsed     int64
	Slabs         int
	Allocs        int
}

// Arena is a bump allocator over slabs of doc.Value and doc.Field.
type Arena struct {
	slabSize int
	values   []doc.Value // unused tail of the current value slab
	fields   []doc.Field // unused tail of the current field slab
	acquirer MemoryAcquirer
	stats    Stats
	freed    bool
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithMemoryAcquirer sets the memory acquirer for the arena.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(a *Arena) {
		a.acquirer = acquirer
	}
}

// WithSlabSize sets the number of elements reserved per slab.
func WithSlabSize(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.slabSize = n
		}
	}
}

// New creates an empty Arena. No memory is reserved until the first
// allocation.
func New(opts ...Option) *Arena {
	a := &Arena{slabSize: DefaultSlabSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Values returns a zeroed slice of n values with len == cap == n.
func (a *Arena) Values(n int) ([]doc.Value, error) {
	if n < 0 {
		return nil, fmt.Errorf("arena: negative size %d", n)
	}
	if a.freed {
		return nil, ErrFreed
	}
	if n == 0 {
		return []doc.Value{}, nil
	}
	if n > len(a.values) {
		size := max(n, a.slabSize)
		if err := a.reserve(int64(size) * valueSize); err != nil {
			return nil, err
		}
		slab := make([]doc.Value, size)
		if n == size {
			a.account(int64(n) * valueSize)
			return slab, nil
		}
		a.values = slab
	}
	out := a.values[:n:n]
	a.values = a.values[n:]
	a.account(int64(n) * valueSize)
	return out, nil
}

// Fields returns a zeroed slice of n fields with len == cap == n.
func (a *Arena) Fields(n int) ([]doc.Field, error) {
	if n < 0 {
		return nil, fmt.Errorf("arena: negative size %d", n)
	}
	if a.freed {
		return nil, ErrFreed
	}
	if n == 0 {
		return []doc.Field{}, nil
	}
	if n > len(a.fields) {
		size := max(n, a.slabSize)
		if err := a.reserve(int64(size) * fieldSize); err != nil {
			return nil, err
		}
		slab := make([]doc.Field, size)
		if n == size {
			a.account(int64(n) * fieldSize)
			return slab, nil
		}
		a.fields = slab
	}
	out := a.fields[:n:n]
	a.fields = a.fields[n:]
	a.account(int64(n) * fieldSize)
	return out, nil
}

func (a *Arena) reserve(bytes int64) error {
	if a.acquirer != nil {
		if err := a.acquirer.AcquireMemory(bytes); err != nil {
			return fmt.Errorf("arena: reserve %d bytes: %w", bytes, err)
		}
	}
	a.stats.BytesReserved += bytes
	a.stats.Slabs++
	return nil
}

func (a *Arena) account(bytes int64) {
	a.stats.BytesUsed += bytes
	a.stats.Allocs++
}

// Stats returns the arena's usage counters.
func (a *Arena) Stats() Stats { return a.stats }

// Free drops all slabs and returns reserved memory to the acquirer. Slices
// handed out earlier stay valid for the garbage collector; they simply no
// longer count against the budget. Free is idempotent.
func (a *Arena) Free() {
	if a.freed {
		return
	}
	a.freed = true
	a.values = nil
	a.fields = nil
	if a.acquirer != nil && a.stats.BytesReserved > 0 {
		a.acquirer.ReleaseMemory(a.stats.BytesReserved)
	}
}

// String returns a human-readable summary.
func (a *Arena) String() string {
	return fmt.Sprintf("Arena{slabs=%d reserved=%d used=%d allocs=%d}",
		a.stats.Slabs, a.stats.BytesReserved, a.stats.BytesUsed, a.stats.Allocs)
}
