package devs

import "container/heap"

// scheduleEntry is one (atomic, time) slot tracked by the priority schedule.
// index is maintained by container/heap for O(log n) re-keying.
type scheduleEntry[V any] struct {
	state *modelState[V]
	key   Time
	index int
}

// scheduleHeap implements heap.Interface ordered by Time, a container/heap
// over a slice (see https://pkg.go.dev/container/heap#example-package-IntHeap)
// but keyed by the super-dense Time instead of a plain tick count.
type scheduleHeap[V any] []*scheduleEntry[V]

func (h scheduleHeap[V]) Len() int           { return len(h) }
func (h scheduleHeap[V]) Less(i, j int) bool { return h[i].key.Less(h[j].key) }
func (h scheduleHeap[V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *scheduleHeap[V]) Push(x any) {
	e := x.(*scheduleEntry[V])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *scheduleHeap[V]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// Schedule is the min-priority queue of atomic models keyed by next-event
// time, supporting re-keying of an already-scheduled model and bulk
// extraction of every model imminent at the current minimum.
type Schedule[V any] struct {
	heap    scheduleHeap[V]
	entries map[*modelState[V]]*scheduleEntry[V]
}

// NewSchedule returns an empty schedule.
func NewSchedule[V any]() *Schedule[V] {
	return &Schedule[V]{entries: make(map[*modelState[V]]*scheduleEntry[V])}
}

// Insert adds a model to the schedule, or re-keys it if already present.
func (s *Schedule[V]) Insert(ms *modelState[V], t Time) {
	if e, ok := s.entries[ms]; ok {
		e.key = t
		heap.Fix(&s.heap, e.index)
		return
	}
	e := &scheduleEntry[V]{state: ms, key: t}
	s.entries[ms] = e
	heap.Push(&s.heap, e)
}

// Remove removes a model from the schedule entirely.
func (s *Schedule[V]) Remove(ms *modelState[V]) {
	e, ok := s.entries[ms]
	if !ok {
		return
	}
	heap.Remove(&s.heap, e.index)
	delete(s.entries, ms)
}

// MinPriority returns the smallest key in the schedule, or Infinity if the
// schedule is empty.
func (s *Schedule[V]) MinPriority() Time {
	if len(s.heap) == 0 {
		return Infinity()
	}
	return s.heap[0].key
}

// VisitImminent returns every model whose key equals MinPriority. An empty
// or infinite-only schedule returns nil.
func (s *Schedule[V]) VisitImminent() []*modelState[V] {
	if len(s.heap) == 0 {
		return nil
	}
	min := s.heap[0].key
	if min.IsInfinity() {
		return nil
	}
	var out []*modelState[V]
	for _, e := range s.heap {
		if e.key.Equal(min) {
			out = append(out, e.state)
		}
	}
	return out
}

// Len returns the number of models currently tracked by the schedule.
func (s *Schedule[V]) Len() int {
	return len(s.heap)
}
