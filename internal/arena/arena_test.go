package arena

import (
	"errors"
	"testing"

	"github.com/hupe1980/combine/doc"
)

type countingAcquirer struct {
	limit int64
	used  int64
}

func (c *countingAcquirer) AcquireMemory(n int64) error {
	if c.limit > 0 && c.used+n > c.limit {
		return errors.New("over budget")
	}
	c.used += n
	return nil
}

func (c *countingAcquirer) ReleaseMemory(n int64) { c.used -= n }

func TestArena_Values(t *testing.T) {
	a := New(WithSlabSize(8))
	defer a.Free()

	first, err := a.Values(3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Values(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || cap(first) != 3 {
		t.Fatalf("expected len=cap=3, got len=%d cap=%d", len(first), cap(first))
	}

	// Appending to a full slice must not clobber its neighbour.
	second[0] = doc.Int(7)
	_ = append(first, doc.Int(1))
	if second[0].I64 != 7 {
		t.Fatal("append overwrote neighbouring allocation")
	}

	if s := a.Stats(); s.Slabs != 1 || s.Allocs != 2 {
		t.Fatalf("unexpected stats %s", a)
	}

	// Next allocation needs a new slab.
	if _, err := a.Values(1); err != nil {
		t.Fatal(err)
	}
	if s := a.Stats(); s.Slabs != 2 {
		t.Fatalf("expected 2 slabs, got %d", s.Slabs)
	}
}

func TestArena_LargeAllocation(t *testing.T) {
	a := New(WithSlabSize(4))
	defer a.Free()

	fields, err := a.Fields(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 10 {
		t.Fatalf("expected 10 fields, got %d", len(fields))
	}
	for i := range fields {
		if fields[i].Name != "" || fields[i].Value.Kind != doc.KindInvalid {
			t.Fatalf("field %d not zeroed", i)
		}
	}
}

func TestArena_MemoryAccounting(t *testing.T) {
	acq := &countingAcquirer{}
	a := New(WithSlabSize(4), WithMemoryAcquirer(acq))

	if _, err := a.Values(2); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Fields(2); err != nil {
		t.Fatal(err)
	}
	if acq.used != a.Stats().BytesReserved || acq.used == 0 {
		t.Fatalf("acquirer used=%d, arena reserved=%d", acq.used, a.Stats().BytesReserved)
	}

	a.Free()
	a.Free()
	if acq.used != 0 {
		t.Fatalf("expected all memory released, still %d", acq.used)
	}
	if _, err := a.Values(1); !errors.Is(err, ErrFreed) {
		t.Fatalf("expected ErrFreed, got %v", err)
	}
}

func TestArena_BudgetExceeded(t *testing.T) {
	acq := &countingAcquirer{limit: 1}
	a := New(WithMemoryAcquirer(acq))
	defer a.Free()

	if _, err := a.Values(1); err == nil {
		t.Fatal("expected budget error")
	}
	if acq.used != 0 {
		t.Fatalf("failed reservation must not be counted, got %d", acq.used)
	}
}

func TestArena_ZeroAndNegative(t *testing.T) {
	a := New()
	defer a.Free()

	v, err := a.Values(0)
	if err != nil || v == nil || len(v) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v %v", v, err)
	}
	if _, err := a.Fields(-1); err == nil {
		t.Fatal("expected error for negative size")
	}
}
