package hybrid

import "github.com/devsim-go/devsim/devs"

// Config tunes the integration Wrap performs. Stepper defaults to RK4,
// Locator to BisectionLocator, and Step (the fixed time-event polling
// interval) to 0.01 if left zero.
type Config struct {
	Step    float64
	Stepper Stepper
	Locator Locator
}

// pendingStep caches the result of the most recent TimeAdvance call so
// Output and the transition functions agree on exactly what was integrated,
// matching the DEVS contract that Output always precedes the transition it
// describes.
type pendingStep struct {
	dt         float64
	q          []float64
	stateEvent []bool
}

type hybridSnapshot struct {
	q []float64
	z []float64
}

// hybridAtomic adapts a System into devs.Atomic[[]float64]. q holds the
// physical state in [0:n) and the model's own absolute local time at index
// n.
type hybridAtomic struct {
	sys     System
	stepper Stepper
	locator Locator
	step    float64
	n       int
	m       int

	q       []float64
	z       []float64
	pending pendingStep
}

// Wrap builds the devs.Atomic driving sys under the given configuration.
func Wrap(sys System, cfg Config) devs.Atomic[[]float64] {
	n := sys.NumStateVariables()
	m := sys.NumEventIndicators()

	stepper := cfg.Stepper
	if stepper == nil {
		stepper = RK4{}
	}
	locator := cfg.Locator
	if locator == nil {
		locator = BisectionLocator{}
	}
	step := cfg.Step
	if step <= 0 {
		step = 0.01
	}

	q := make([]float64, n+1)
	sys.Init(q[:n])
	z := make([]float64, m)
	if m > 0 {
		sys.StateEventFunc(q[:n], z)
	}

	return &hybridAtomic{sys: sys, stepper: stepper, locator: locator, step: step, n: n, m: m, q: q, z: z}
}

// TimeAdvance integrates one trial step of length min(Step, time to the
// next scheduled time event), then checks for a state-event crossing within
// that step and, if found, shrinks the step to the located crossing time.
// The result — both the chosen dt and the state it leads to — is cached for
// Output and whichever transition function the engine calls next.
func (w *hybridAtomic) TimeAdvance() float64 {
	dt := w.step
	untilTimeEvent := w.sys.TimeEventFunc(w.q[:w.n])
	if untilTimeEvent >= 0 && untilTimeEvent < dt {
		dt = untilTimeEvent
	}
	if dt < 0 {
		dt = 0
	}

	qNext := w.stepper.Step(w.sys, w.q[:w.n], dt)
	stateEvent := make([]bool, w.m)
	tEvent := dt
	qEvent := qNext

	if w.m > 0 {
		zNext := make([]float64, w.m)
		w.sys.StateEventFunc(qNext, zNext)
		anyChanged := false
		for i := range zNext {
			if sign(zNext[i]) != sign(w.z[i]) {
				stateEvent[i] = true
				anyChanged = true
			}
		}
		if anyChanged {
			if t, qt, found := w.locator.Locate(w.sys, w.q[:w.n], qNext, dt, w.stepper); found {
				tEvent, qEvent = t, qt
			}
		}
	}

	w.pending = pendingStep{dt: tEvent, q: qEvent, stateEvent: stateEvent}
	return tEvent
}

func (w *hybridAtomic) Output(out *devs.Bag[[]float64]) {
	w.sys.OutputFunc(w.pending.q, w.pending.stateEvent, out)
}

func (w *hybridAtomic) InternalTransition() {
	w.commit(w.pending.dt, w.pending.q)
	w.sys.InternalEvent(w.q[:w.n], w.pending.stateEvent)
	w.afterTransition()
}

func (w *hybridAtomic) ExternalTransition(elapsed float64, in *devs.Bag[[]float64]) {
	qAt := w.stepper.Step(w.sys, w.q[:w.n], elapsed)
	w.commit(elapsed, qAt)
	w.sys.ExternalEvent(w.q[:w.n], elapsed, in)
	w.afterTransition()
}

func (w *hybridAtomic) ConfluentTransition(in *devs.Bag[[]float64]) {
	w.commit(w.pending.dt, w.pending.q)
	w.sys.ConfluentEvent(w.q[:w.n], w.pending.stateEvent, in)
	w.afterTransition()
}

func (w *hybridAtomic) commit(dt float64, qNext []float64) {
	copy(w.q[:w.n], qNext)
	w.q[w.n] += dt
}

func (w *hybridAtomic) afterTransition() {
	w.sys.PostStep(w.q[:w.n])
	if w.m > 0 {
		w.sys.StateEventFunc(w.q[:w.n], w.z)
	}
}

// SaveState, RestoreState, and GCState let a hybridAtomic run under the
// optimistic simulator, which checkpoints every atomic implementing
// devs.StateSaver before each speculative transition.
func (w *hybridAtomic) SaveState() any {
	snap := hybridSnapshot{q: make([]float64, len(w.q)), z: make([]float64, len(w.z))}
	copy(snap.q, w.q)
	copy(snap.z, w.z)
	return snap
}

func (w *hybridAtomic) RestoreState(handle any) {
	snap := handle.(hybridSnapshot)
	copy(w.q, snap.q)
	copy(w.z, snap.z)
}

func (w *hybridAtomic) GCState(any) {}
