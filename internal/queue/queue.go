// Package queue provides a binary heap ordered by an explicit comparator.
package queue

// Heap is a min-heap: the item for which less reports true against every
// other item is on top. A max-heap is a Heap with an inverted comparator.
type Heap[T any] struct {
	less  func(a, b T) bool
	items []T
}

// New initializes a heap ordered by less with the given capacity hint.
func New[T any](less func(a, b T) bool, capacity int) *Heap[T] {
	return &Heap[T]{
		less:  less,
		items: make([]T, 0, capacity),
	}
}

// Len returns the number of items in the heap.
func (h *Heap[T]) Len() int { return len(h.items) }

// Top returns the top item without removing it.
func (h *Heap[T]) Top() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (h *Heap[T]) Push(item T) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// Pop removes and returns the top item while maintaining the heap invariant.
func (h *Heap[T]) Pop() (T, bool) {
	var zero T
	n := len(h.items)
	if n == 0 {
		return zero, false
	}
	root := h.items[0]
	last := h.items[n-1]
	h.items[n-1] = zero // Zero out for GC
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, true
}

// Reset clears the heap for reuse.
func (h *Heap[T]) Reset() {
	clear(h.items)
	h.items = h.items[:0]
}

// Drain removes all items in heap order and returns them.
func (h *Heap[T]) Drain() []T {
	out := make([]T, 0, len(h.items))
	for len(h.items) > 0 {
		item, _ := h.Pop()
		out = append(out, item)
	}
	return out
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(h.items[i], h.items[p]) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && h.less(h.items[r], h.items[l]) {
			best = r
		}
		if !h.less(h.items[best], h.items[i]) {
			return
		}
		h.items[i], h.items[best] = h.items[best], h.items[i]
		i = best
	}
}
