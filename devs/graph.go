package devs

import "fmt"

// edgeTarget is one endpoint of a routing edge: either another output pin
// (pin→pin fan-out) or an atomic's input pin (pin→atomic-input-pin).
type edgeTarget struct {
	toPin    Pin
	toAtomic any // *modelState[V], stored as any so Graph can stay generic-free at the edge level
}

// opKind enumerates the structural mutations that may be logged while the
// graph is in provisional mode.
type opKind int

const (
	opAddAtomic opKind = iota
	opRemoveAtomic
	opConnectPinToPin
	opConnectPinToAtomic
	opDisconnectPinToPin
	opDisconnectPinToAtomic
	opRemovePin
)

type pendingOp[V any] struct {
	kind      opKind
	atomic    ModelHandle[V]
	fromPin   Pin
	toPin     Pin
	toAtomic  ModelHandle[V]
}

// Consumer identifies one recipient of a routed value: the input pin it
// arrives on and the atomic model bound to it.
type Consumer[V any] struct {
	Pin   Pin
	Model ModelHandle[V]
}

// Graph is the directed hypergraph over pins and atomic models. Structural
// mutations issued while the simulator has entered provisional mode (i.e. a
// step is in progress) are appended to a pending log instead of applied
// immediately; Route queries continue to observe the
// pre-mutation graph until the log is drained.
type Graph[V any] struct {
	atomics     map[ModelHandle[V]]bool
	edges       map[Pin][]edgeTarget // output pin -> fan-out targets
	provisional bool
	pending     []pendingOp[V]

	// added/removed accumulate the atomics that ExitProvisional actually
	// applied since the last TakeStructuralChanges call, so the Simulator
	// can keep its schedule in sync with the graph's atomic set.
	added   []ModelHandle[V]
	removed []ModelHandle[V]
}

// NewGraph returns an empty routing graph.
func NewGraph[V any]() *Graph[V] {
	return &Graph[V]{
		atomics: make(map[ModelHandle[V]]bool),
		edges:   make(map[Pin][]edgeTarget),
	}
}

// TakeStructuralChanges returns the atomics added and removed by the most
// recent ExitProvisional drain (or by direct, non-provisional Add/Remove
// calls) and clears the accumulator.
func (g *Graph[V]) TakeStructuralChanges() (added, removed []ModelHandle[V]) {
	added, removed = g.added, g.removed
	g.added, g.removed = nil, nil
	return added, removed
}

// EnterProvisional marks the graph as being mutated mid-step: further
// Add/Remove/Connect/Disconnect calls are logged rather than applied.
func (g *Graph[V]) EnterProvisional() {
	g.provisional = true
}

// IsProvisional reports whether the graph is currently in provisional mode.
func (g *Graph[V]) IsProvisional() bool {
	return g.provisional
}

// ExitProvisional drains the pending operation log in FIFO order, applying
// each mutation, then leaves provisional mode.
func (g *Graph[V]) ExitProvisional() {
	pending := g.pending
	g.pending = nil
	g.provisional = false
	for _, op := range pending {
		g.apply(op)
	}
}

func (g *Graph[V]) apply(op pendingOp[V]) {
	switch op.kind {
	case opAddAtomic:
		g.atomics[op.atomic] = true
		g.added = append(g.added, op.atomic)
	case opRemoveAtomic:
		delete(g.atomics, op.atomic)
		g.removed = append(g.removed, op.atomic)
	case opConnectPinToPin:
		g.edges[op.fromPin] = append(g.edges[op.fromPin], edgeTarget{toPin: op.toPin})
	case opConnectPinToAtomic:
		g.edges[op.fromPin] = append(g.edges[op.fromPin], edgeTarget{toPin: op.toPin, toAtomic: op.toAtomic})
	case opDisconnectPinToPin:
		g.removeEdge(op.fromPin, op.toPin, nil)
	case opDisconnectPinToAtomic:
		g.removeEdge(op.fromPin, op.toPin, op.toAtomic)
	case opRemovePin:
		delete(g.edges, op.fromPin)
		for p, targets := range g.edges {
			kept := targets[:0]
			for _, tg := range targets {
				if tg.toPin != op.fromPin {
					kept = append(kept, tg)
				}
			}
			g.edges[p] = kept
		}
	}
}

func (g *Graph[V]) removeEdge(from, to Pin, toAtomic ModelHandle[V]) {
	targets := g.edges[from]
	kept := targets[:0]
	for _, tg := range targets {
		match := tg.toPin == to && (toAtomic == nil || tg.toAtomic == toAtomic)
		if !match {
			kept = append(kept, tg)
		}
	}
	g.edges[from] = kept
}

// AddAtomic wraps a into the engine's per-model bookkeeping and registers it
// with the graph, returning a handle for subsequent Connect/Remove calls.
// now seeds the new model's tL (its last-transition time). If the graph is
// provisional, registration is queued and will apply at ExitProvisional,
// but the returned handle is already valid to pass to Connect* calls issued
// in the same provisional window.
func (g *Graph[V]) AddAtomic(a Atomic[V], now Time) (ModelHandle[V], error) {
	ms, err := newModelState[V](a, now)
	if err != nil {
		return nil, err
	}
	if g.provisional {
		g.pending = append(g.pending, pendingOp[V]{kind: opAddAtomic, atomic: ms})
		return ms, nil
	}
	g.apply(pendingOp[V]{kind: opAddAtomic, atomic: ms})
	return ms, nil
}

// RemoveAtomic unregisters an atomic, or queues the removal if provisional.
func (g *Graph[V]) RemoveAtomic(ms ModelHandle[V]) {
	if g.provisional {
		g.pending = append(g.pending, pendingOp[V]{kind: opRemoveAtomic, atomic: ms})
		return
	}
	g.apply(pendingOp[V]{kind: opRemoveAtomic, atomic: ms})
}

// Atomics returns every atomic currently registered in the graph. Order is
// unspecified; callers that need a stable order (e.g. building an LP roster)
// should sort the result themselves.
func (g *Graph[V]) Atomics() []ModelHandle[V] {
	out := make([]ModelHandle[V], 0, len(g.atomics))
	for ms := range g.atomics {
		out = append(out, ms)
	}
	return out
}

// ConnectPinToPin fans an output pin out to another output pin (external
// port pass-through), or queues the connection if provisional.
func (g *Graph[V]) ConnectPinToPin(from, to Pin) {
	if g.provisional {
		g.pending = append(g.pending, pendingOp[V]{kind: opConnectPinToPin, fromPin: from, toPin: to})
		return
	}
	g.edges[from] = append(g.edges[from], edgeTarget{toPin: to})
}

// ConnectPinToAtomic wires an output pin to an atomic's input pin. to must
// not be the same atomic that owns from's originating model; that
// self-influence check happens at Route time, where the originating model
// is known.
func (g *Graph[V]) ConnectPinToAtomic(from Pin, toPin Pin, toAtomic ModelHandle[V]) {
	if g.provisional {
		g.pending = append(g.pending, pendingOp[V]{kind: opConnectPinToAtomic, fromPin: from, toPin: toPin, toAtomic: toAtomic})
		return
	}
	g.edges[from] = append(g.edges[from], edgeTarget{toPin: toPin, toAtomic: toAtomic})
}

// DisconnectPinToPin removes a pin→pin edge, or queues the removal.
func (g *Graph[V]) DisconnectPinToPin(from, to Pin) {
	if g.provisional {
		g.pending = append(g.pending, pendingOp[V]{kind: opDisconnectPinToPin, fromPin: from, toPin: to})
		return
	}
	g.removeEdge(from, to, nil)
}

// DisconnectPinToAtomic removes a pin→atomic edge, or queues the removal.
func (g *Graph[V]) DisconnectPinToAtomic(from Pin, toPin Pin, toAtomic ModelHandle[V]) {
	if g.provisional {
		g.pending = append(g.pending, pendingOp[V]{kind: opDisconnectPinToAtomic, fromPin: from, toPin: toPin, toAtomic: toAtomic})
		return
	}
	g.removeEdge(from, toPin, toAtomic)
}

// RemovePin drops every edge touching pin, either as a source or a
// pin→pin target, or queues the removal.
func (g *Graph[V]) RemovePin(pin Pin) {
	if g.provisional {
		g.pending = append(g.pending, pendingOp[V]{kind: opRemovePin, fromPin: pin})
		return
	}
	g.apply(pendingOp[V]{kind: opRemovePin, fromPin: pin})
}

// Route resolves every atomic transitively reachable from the output pin
// carrying value, following pin→pin fan-out until it reaches pin→atomic
// edges. source, if non-nil, is the model producing the value; routing back
// to source itself is a fatal SelfInfluenceError.
func (g *Graph[V]) Route(from Pin, source ModelHandle[V]) ([]Consumer[V], error) {
	var out []Consumer[V]
	visited := map[Pin]bool{}
	var walk func(pin Pin) error
	walk = func(pin Pin) error {
		if visited[pin] {
			return nil
		}
		visited[pin] = true
		for _, tg := range g.edges[pin] {
			if tg.toAtomic != nil {
				target := tg.toAtomic.(ModelHandle[V])
				if source != nil && target == source {
					return SelfInfluenceError{Model: target.atomic}
				}
				out = append(out, Consumer[V]{Pin: tg.toPin, Model: target})
				continue
			}
			if err := walk(tg.toPin); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(from); err != nil {
		return nil, err
	}
	return out, nil
}

// String renders a brief summary of the graph's wiring, in the compact
// bracketed style used elsewhere in this module's container types.
func (g *Graph[V]) String() string {
	return fmt.Sprintf("Graph{atomics=%d, pins=%d, provisional=%v}", len(g.atomics), len(g.edges), g.provisional)
}
