// Package optimistic implements the Time Warp driver: a parallel simulator
// that lets every model run ahead of global virtual time on its own thread,
// relying on devs/lp's rollback discipline to undo speculation a late
// message proves wrong.
//
// Simulator owns one devs/lp.LP per atomic in a devs.Graph and a min-heap
// keyed by each LP's NextEventTime. ExecUntil drains the heap in batches,
// fans a batch out across goroutines with golang.org/x/sync/errgroup (each
// goroutine touches only its own LP, so no locking is needed beyond the
// per-LP inbox mutex devs/lp already holds), then sequentially reschedules
// every LP the round activated — whether because it was in the batch or
// because another LP's speculative output reached it — before recomputing
// GVT and looping. Reaching the stop time runs one final fossil-collection
// pass across every LP.
package optimistic
