package devs

// Atomic is the DEVS atomic model protocol. An atomic owns private state
// and is driven exclusively by the simulator through this interface; it
// never schedules itself or reaches into the routing graph.
type Atomic[V any] interface {
	// TimeAdvance returns the real-time interval until this model's next
	// internal transition. A value of +Inf (see Infinity) means passive:
	// the model only reacts to external input. A negative value is a fatal
	// NegativeTimeAdvanceError.
	TimeAdvance() float64

	// Output is called at an imminent event, before the corresponding
	// transition function, to produce this step's outputs into out.
	Output(out *Bag[V])

	// InternalTransition fires when the model is imminent and has received
	// no external input this step.
	InternalTransition()

	// ExternalTransition fires when the model has received external input
	// and is not imminent. elapsed is the real time since the model's last
	// transition (tNext - tL).
	ExternalTransition(elapsed float64, in *Bag[V])

	// ConfluentTransition fires when the model is imminent and has also
	// received external input at the same instant.
	ConfluentTransition(in *Bag[V])
}

// StateSaver is implemented by atomics used under the optimistic simulator.
// It lets the engine checkpoint and later discard or restore private state
// without knowing its representation.
type StateSaver interface {
	// SaveState returns an opaque handle capturing the model's current
	// state. The engine treats the handle as opaque and passes it to
	// GCState at most once, after RestoreState when it restores from it.
	SaveState() any

	// RestoreState replaces the model's current state with the state
	// captured in handle (produced by a prior SaveState).
	RestoreState(handle any)

	// GCState releases a checkpoint handle the engine will not use again.
	GCState(handle any)
}

// OutputGC is implemented by atomics whose output bags reference resources
// that must be released once the engine is done with an output (e.g. pooled
// buffers): fossil collection passes it every output it drops, whether a
// rollback discarded it or it was committed. Optional: atomics with nothing
// to free need not implement it.
type OutputGC[V any] interface {
	GCOutput(discarded *Bag[V])
}

// MealyAtomic is the optional extension for models whose output at an event
// may depend on input received at that very instant. The engine queries for
// this capability with a type assertion (a.(MealyAtomic[V])) rather than a
// tagged variant.
type MealyAtomic[V any] interface {
	// OutputInternal produces output for a purely internal firing (imminent,
	// no input).
	OutputInternal(out *Bag[V])

	// OutputConfluent produces output for a confluent firing (imminent, with
	// input received at the same instant).
	OutputConfluent(in *Bag[V], out *Bag[V])

	// OutputExternal produces output for an externally-driven firing (not
	// imminent, input received). elapsed is the time since the model's last
	// transition.
	OutputExternal(elapsed float64, in *Bag[V], out *Bag[V])
}

// AsMealy returns a's MealyAtomic view and true if a implements it.
func AsMealy[V any](a Atomic[V]) (MealyAtomic[V], bool) {
	m, ok := a.(MealyAtomic[V])
	return m, ok
}

// ModelHandle is the opaque reference a Graph/Simulator hands back when an
// atomic is added, used for subsequent Connect/Disconnect/Remove calls. It
// is always the same pointer for the lifetime of the atomic in the graph.
type ModelHandle[V any] = *modelState[V]

// modelState is the per-atomic bookkeeping the simulator maintains; it is
// never exposed to or owned by the model itself.
type modelState[V any] struct {
	atomic  Atomic[V]
	tL      Time // time of last transition
	tN      Time // tL + TimeAdvance(), i.e. next internal transition
	input   Bag[V]
	output  Bag[V]
	mealy   MealyAtomic[V]
	isMealy bool
}

// Model returns the atomic this handle was registered with, e.g. for a
// driver package that needs to wrap it in its own per-model executor.
func (ms *modelState[V]) Model() Atomic[V] { return ms.atomic }

// newModelState wraps a for engine bookkeeping, seeding tL at now. A
// negative TimeAdvance at construction time is reported as an error rather
// than silently producing a broken schedule entry.
func newModelState[V any](a Atomic[V], now Time) (*modelState[V], error) {
	ms := &modelState[V]{atomic: a, tL: now}
	ms.mealy, ms.isMealy = AsMealy[V](a)
	tN, err := ms.nextEventTime(now)
	if err != nil {
		return nil, err
	}
	ms.tN = tN
	return ms, nil
}

// nextEventTime recomputes tN from the model's current TimeAdvance relative
// to tL, validating the non-negative invariant: a negative time advance is
// a fatal NegativeTimeAdvanceError, reported to the caller rather than
// corrupting the schedule.
func (ms *modelState[V]) nextEventTime(tL Time) (Time, error) {
	ta := ms.atomic.TimeAdvance()
	if ta < 0 {
		return Time{}, NegativeTimeAdvanceError{Model: ms.atomic, TimeAdvance: ta}
	}
	if isInf(ta) {
		return Infinity(), nil
	}
	return tL.Advance(ta), nil
}

func isInf(f float64) bool {
	return f > maxFiniteAdvance
}

// maxFiniteAdvance treats any advance beyond this magnitude as
// "passive" (+Inf), matching the convention that math.Inf(1) and very large
// finite sentinels both mean "never fires on its own".
const maxFiniteAdvance = 1e300
