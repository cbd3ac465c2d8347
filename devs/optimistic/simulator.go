package optimistic

import (
	"container/heap"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/devsim-go/devsim/devs"
	"github.com/devsim-go/devsim/devs/lp"
)

// DefaultMaxBatchSize bounds how many logical processes execute per round
// when the caller does not specify one.
const DefaultMaxBatchSize = 1000

// lpEntry is one (LP, next-event-time) slot tracked by the round heap.
type lpEntry[V any] struct {
	proc  *lp.LP[V]
	key   devs.Time
	index int
}

type lpHeap[V any] []*lpEntry[V]

func (h lpHeap[V]) Len() int           { return len(h) }
func (h lpHeap[V]) Less(i, j int) bool { return h[i].key.Less(h[j].key) }
func (h lpHeap[V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *lpHeap[V]) Push(x any) {
	e := x.(*lpEntry[V])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *lpHeap[V]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// Simulator is the Time Warp driver over a fixed set of logical processes,
// one per atomic registered in graph at construction time. It does not
// support structural change: every atomic the simulator will ever drive
// must already be in graph before NewSimulator runs.
type Simulator[V any] struct {
	graph *devs.Graph[V]
	procs []*lp.LP[V]

	heap    lpHeap[V]
	entries map[*lp.LP[V]]*lpEntry[V]

	// MaxBatchSize caps how many logical processes run concurrently in a
	// single round, bounding both parallelism and per-round overhead.
	MaxBatchSize int

	metrics   *Metrics
	listeners []devs.EventListener[V]

	// earlyByProc and rollbacksByProc hold each LP's last-observed
	// EarlyOutputCount/RollbackCount, so the running totals below can be
	// updated from the batch that just ran instead of rescanning procs.
	earlyByProc       map[*lp.LP[V]]int
	rollbacksByProc   map[*lp.LP[V]]int
	totalEarlyOutputs int
}

// NewSimulator builds one LP per atomic currently in graph and seeds the
// round heap with each one's initial NextEventTime. namespace labels the
// Prometheus metrics this simulator reports.
func NewSimulator[V any](graph *devs.Graph[V], maxBatchSize int, namespace string) *Simulator[V] {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	s := &Simulator[V]{
		graph:           graph,
		MaxBatchSize:    maxBatchSize,
		entries:         make(map[*lp.LP[V]]*lpEntry[V]),
		metrics:         NewMetrics(namespace),
		earlyByProc:     make(map[*lp.LP[V]]int),
		rollbacksByProc: make(map[*lp.LP[V]]int),
	}

	byHandle := make(map[devs.ModelHandle[V]]*lp.LP[V])
	resolve := func(h devs.ModelHandle[V]) *lp.LP[V] { return byHandle[h] }

	for _, h := range graph.Atomics() {
		proc := lp.New[V](h.Model(), h, graph, resolve)
		byHandle[h] = proc
		s.procs = append(s.procs, proc)
	}
	for _, proc := range s.procs {
		s.insert(proc, proc.NextEventTime())
	}
	return s
}

// Metrics returns the simulator's Prometheus-backed counters and gauges.
func (s *Simulator[V]) Metrics() *Metrics { return s.metrics }

// AddEventListener registers a listener to observe events as they commit
// (fall behind GVT and become safe from rollback). Unlike the sequential
// simulator, a listener here only sees OutputEvent calls, and only once an
// event is no longer speculative; InputEvent and StateChange are never
// called, since under Time Warp an input delivery or a state transition may
// still be undone.
func (s *Simulator[V]) AddEventListener(l devs.EventListener[V]) {
	s.listeners = append(s.listeners, l)
}

// notifyCommitted reports each committed message to every registered
// listener. Called single-threaded, after the round (or the final pass)
// that produced msgs has fully finished, so listeners never see concurrent
// calls from different LPs' goroutines.
func (s *Simulator[V]) notifyCommitted(msgs []lp.Message[V]) {
	if len(s.listeners) == 0 {
		return
	}
	for _, m := range msgs {
		model := m.Sender.Model()
		for _, l := range s.listeners {
			l.OutputEvent(model, m.PV, m.Time)
		}
	}
}

// NextEventTime is the smallest NextEventTime across every logical process,
// i.e. the virtual time the next round will execute at.
func (s *Simulator[V]) NextEventTime() devs.Time {
	if len(s.heap) == 0 {
		return devs.Infinity()
	}
	return s.heap[0].key
}

func (s *Simulator[V]) insert(proc *lp.LP[V], t devs.Time) {
	if e, ok := s.entries[proc]; ok {
		e.key = t
		heap.Fix(&s.heap, e.index)
		return
	}
	e := &lpEntry[V]{proc: proc, key: t}
	s.entries[proc] = e
	heap.Push(&s.heap, e)
}

// popBatch removes up to MaxBatchSize of the globally earliest logical
// processes from the heap and marks them active for this round.
func (s *Simulator[V]) popBatch() []*lp.LP[V] {
	n := s.MaxBatchSize
	if n > len(s.heap) {
		n = len(s.heap)
	}
	batch := make([]*lp.LP[V], 0, n)
	for i := 0; i < n; i++ {
		top := heap.Pop(&s.heap).(*lpEntry[V])
		delete(s.entries, top.proc)
		top.proc.SetActive(true)
		batch = append(batch, top.proc)
	}
	return batch
}

// ExecUntil runs rounds of batched, parallel LP execution until the global
// virtual time exceeds stop, then performs a final fossil-collection and
// commit pass up to min(gvt, stop). Each round's batch runs under
// errgroup.WithContext: a goroutine per LP, cancelled as a group if any one
// returns an error (a NegativeTimeAdvanceError or a rollback that outran
// every retained checkpoint).
func (s *Simulator[V]) ExecUntil(ctx context.Context, stop devs.Time) error {
	gvt := s.NextEventTime()
	for !gvt.IsInfinity() && !stop.Less(gvt) {
		batch := s.popBatch()

		var mu sync.Mutex
		var roundCommitted []lp.Message[V]

		g, _ := errgroup.WithContext(ctx)
		for _, proc := range batch {
			proc := proc
			g.Go(func() error {
				committed := proc.FossilCollect(gvt)
				if len(committed) > 0 {
					mu.Lock()
					roundCommitted = append(roundCommitted, committed...)
					mu.Unlock()
				}
				if err := proc.ExecOutput(); err != nil {
					return err
				}
				return proc.ExecDeltaFunc()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		s.metrics.observeCommitted(len(roundCommitted))
		s.notifyCommitted(roundCommitted)

		// Reschedule every batch LP and refresh its early-output and
		// rollback counts; only batch LPs ran, so only their counts move.
		for _, proc := range batch {
			s.insert(proc, proc.NextEventTime())
			proc.SetActive(false)

			early := proc.EarlyOutputCount()
			s.totalEarlyOutputs += early - s.earlyByProc[proc]
			s.earlyByProc[proc] = early

			rollbacks := proc.RollbackCount()
			if delta := rollbacks - s.rollbacksByProc[proc]; delta > 0 {
				s.rollbacksByProc[proc] = rollbacks
				s.metrics.observeRollbacks(delta)
			}
		}
		// LPs outside the batch that SendMessage activated this round hold
		// stale heap keys until they are rescheduled here.
		for _, proc := range s.procs {
			if proc.IsActive() {
				s.insert(proc, proc.NextEventTime())
				proc.SetActive(false)
			}
		}
		s.metrics.setEarlyOutputs(s.totalEarlyOutputs)

		gvt = s.NextEventTime()
		s.metrics.setGVT(gvt)
	}

	// The final pass must flush every LP regardless of which ran last
	// round: GVT may have advanced past committed output sitting in LPs
	// that were never in the final batch. It runs once, not per round, so
	// its O(N) cost is a one-time drain rather than a recurring one.
	effectiveGVT := gvt
	if stop.Less(effectiveGVT) {
		effectiveGVT = stop
	}
	var finalCommitted []lp.Message[V]
	for _, proc := range s.procs {
		finalCommitted = append(finalCommitted, proc.FossilCollect(effectiveGVT)...)
	}
	s.metrics.observeCommitted(len(finalCommitted))
	s.notifyCommitted(finalCommitted)
	s.metrics.setGVT(effectiveGVT)
	return nil
}

// RollbackCount sums the lifetime rollback count across every logical
// process, for callers that want a point-in-time read without a
// Prometheus registry wired up.
func (s *Simulator[V]) RollbackCount() int {
	total := 0
	for _, proc := range s.procs {
		total += proc.RollbackCount()
	}
	return total
}

// EarlyOutputCount sums the currently-outstanding speculative output count
// across every logical process.
func (s *Simulator[V]) EarlyOutputCount() int {
	total := 0
	for _, proc := range s.procs {
		total += proc.EarlyOutputCount()
	}
	return total
}
