package hybrid

import "github.com/devsim-go/devsim/devs"

// System is a continuous-time model driven by numerical integration between
// discrete events. q is always the physical state vector of length
// NumStateVariables — callers never see the wrapper's extra time
// coordinate.
type System interface {
	// NumStateVariables is the length of the state vector q passed to every
	// other method.
	NumStateVariables() int

	// NumEventIndicators is the length of the z vector StateEventFunc fills.
	// Zero means the system has no state events, only time events.
	NumEventIndicators() int

	// Init sets q to the model's initial state.
	Init(q []float64)

	// DerFunc computes dq/dt at state q into dq.
	DerFunc(q, dq []float64)

	// StateEventFunc fills z with indicator values whose sign change between
	// two integration steps marks a state event (a threshold crossing, a
	// collision). Unused if NumEventIndicators is 0.
	StateEventFunc(q, z []float64)

	// TimeEventFunc returns the time remaining, measured from state q, until
	// this model's next scheduled discrete event, or +Inf if none is pending.
	TimeEventFunc(q []float64) float64

	// InternalEvent fires when integration reached a state or time event
	// with no external input. stateEvent[i] is true for indicators that
	// changed sign on this step.
	InternalEvent(q []float64, stateEvent []bool)

	// ExternalEvent fires when input arrives before the next event; elapsed
	// is the time since the model's last transition.
	ExternalEvent(q []float64, elapsed float64, xb *devs.Bag[[]float64])

	// ConfluentEvent fires when an event and external input coincide.
	ConfluentEvent(q []float64, stateEvent []bool, xb *devs.Bag[[]float64])

	// OutputFunc produces this step's output into yb, reading but never
	// mutating q.
	OutputFunc(q []float64, stateEvent []bool, yb *devs.Bag[[]float64])

	// PostStep is called after every committed transition, letting the
	// model enforce invariants (clamping, renormalizing) integration alone
	// cannot guarantee.
	PostStep(q []float64)
}

// FMIHooks documents the FMI 2.0 ModelExchange lifecycle a System may
// additionally implement so an external adapter can drive a loaded FMU
// through this package's stepping and event-locating machinery. This
// package implements no dynamic-library loading or ABI marshaling itself —
// a caller needing an actual .so-backed FMU supplies its own adapter
// satisfying both System and FMIHooks.
type FMIHooks interface {
	Instantiate(instanceName, guid string) error
	SetupExperiment(startTime, stopTime float64) error
	Terminate() error
}
