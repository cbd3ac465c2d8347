package devs

import "github.com/sirupsen/logrus"

// ExternalPin is a pin name a host may use for injected values. Nothing in
// this package treats it specially: InjectInput routes every PinValue
// through the graph by its own pin, so it reaches only the models it is
// connected to.
const ExternalPin Pin = "__external__"

// CoupledModel is implemented by a composite that knows how to install
// itself — its children and internal wiring — into a Graph.
type CoupledModel[V any] interface {
	Install(g *Graph[V], now Time) error
}

// Simulator is the sequential DEVS engine: a two-phase event cycle driven by
// a host that repeatedly asks for NextEventTime and calls ExecNextEvent (or
// the split ComputeNextOutput/ComputeNextState).
type Simulator[V any] struct {
	graph    *Graph[V]
	schedule *Schedule[V]
	tNext    Time

	injected  []PinValue[V]
	listeners []EventListener[V]

	// active holds every model that will transition in ComputeNextState.
	// For a Mealy model, membership in active ALSO means it has already
	// produced its output this phase (spec: "moving a model from
	// pending_mealy to active is what finalizes its output"); a Moore
	// model's membership carries no such meaning, since a Moore output
	// never depends on input.
	active map[ModelHandle[V]]bool
	// queuedMealy tracks Mealy models already appended to pendingMealy,
	// so a second input arriving before they fire doesn't double-queue
	// them.
	queuedMealy  map[ModelHandle[V]]bool
	pendingMealy []ModelHandle[V]
}

// NewSimulatorFromAtomic builds a one-model graph around a and returns a
// Simulator driving it.
func NewSimulatorFromAtomic[V any](a Atomic[V]) (*Simulator[V], error) {
	g := NewGraph[V]()
	if _, err := g.AddAtomic(a, Zero); err != nil {
		return nil, err
	}
	return NewSimulatorFromGraph(g), nil
}

// NewSimulatorFromGraph returns a Simulator driving every atomic already
// registered in g.
func NewSimulatorFromGraph[V any](g *Graph[V]) *Simulator[V] {
	s := &Simulator[V]{
		graph:       g,
		schedule:    NewSchedule[V](),
		active:      make(map[ModelHandle[V]]bool),
		queuedMealy: make(map[ModelHandle[V]]bool),
	}
	for ms := range g.atomics {
		s.schedule.Insert(ms, ms.tN)
	}
	g.TakeStructuralChanges() // discard: already accounted for above
	g.EnterProvisional()
	s.tNext = s.schedule.MinPriority()
	return s
}

// NewSimulatorFromCoupled lets c install its children and wiring into a
// fresh graph, then returns a Simulator driving the result.
func NewSimulatorFromCoupled[V any](c CoupledModel[V]) (*Simulator[V], error) {
	g := NewGraph[V]()
	if err := c.Install(g, Zero); err != nil {
		return nil, err
	}
	return NewSimulatorFromGraph(g), nil
}

// AddEventListener registers a listener to observe subsequent steps.
func (s *Simulator[V]) AddEventListener(l EventListener[V]) {
	s.listeners = append(s.listeners, l)
}

// Graph exposes the underlying routing graph, e.g. so a host can add
// atomics before the simulation starts.
func (s *Simulator[V]) Graph() *Graph[V] {
	return s.graph
}

// NextEventTime returns the time of the next event the simulator will
// process, equal to the schedule's current minimum priority at rest.
func (s *Simulator[V]) NextEventTime() Time {
	return s.tNext
}

// SetNextTime overrides tNext downward, e.g. to honor a federation-granted
// time advance that is earlier than the model's own next event (the HLA
// co-simulation use case). It is a no-op if t is not earlier than the
// current tNext.
func (s *Simulator[V]) SetNextTime(t Time) {
	if t.Less(s.tNext) {
		s.tNext = t
	}
}

// InjectInput appends pv to the externally-injected input list, consumed
// and cleared by the next ComputeNextOutput.
func (s *Simulator[V]) InjectInput(pv PinValue[V]) {
	s.injected = append(s.injected, pv)
}

// ClearInjectedInput discards any pending injected input without processing
// it.
func (s *Simulator[V]) ClearInjectedInput() {
	s.injected = nil
}

// ExecNextEvent runs one full step (ComputeNextOutput then
// ComputeNextState) and returns the new NextEventTime.
func (s *Simulator[V]) ExecNextEvent() (Time, error) {
	if err := s.ComputeNextOutput(); err != nil {
		return s.tNext, err
	}
	return s.ComputeNextState()
}

// ComputeNextOutput is Phase A of the event cycle: routes injected input,
// fires every Moore model imminent at tNext, resolves the Mealy models, and
// reports every produced output to registered listeners.
func (s *Simulator[V]) ComputeNextOutput() error {
	for ms := range s.active {
		ms.input.Clear()
		ms.output.Clear()
	}
	s.active = make(map[ModelHandle[V]]bool)
	s.queuedMealy = make(map[ModelHandle[V]]bool)
	s.pendingMealy = nil

	injected := s.injected
	s.injected = nil
	for _, pv := range injected {
		if err := s.routeAndBin(nil, pv); err != nil {
			return err
		}
	}

	if s.schedule.MinPriority().Equal(s.tNext) {
		imminent := s.schedule.VisitImminent()
		for _, ms := range imminent {
			if ms.isMealy {
				s.queuedMealy[ms] = true
				s.pendingMealy = append(s.pendingMealy, ms)
				continue
			}
			out := NewBag[V]()
			ms.atomic.Output(out)
			ms.output = *out
			for _, pv := range out.Items() {
				s.emitOutput(ms, pv)
				if err := s.routeAndBin(ms, pv); err != nil {
					return err
				}
			}
			s.active[ms] = true
		}
	}

	for len(s.pendingMealy) > 0 {
		ms := s.pendingMealy[0]
		s.pendingMealy = s.pendingMealy[1:]

		out := NewBag[V]()
		imminentHere := ms.tN.Equal(s.tNext)
		hasInput := !ms.input.Empty()
		switch {
		case imminentHere && !hasInput:
			ms.mealy.OutputInternal(out)
		case imminentHere && hasInput:
			ms.mealy.OutputConfluent(&ms.input, out)
		default:
			ms.mealy.OutputExternal(s.tNext.Sub(ms.tL), &ms.input, out)
		}
		ms.output = *out
		// Finalize BEFORE routing: if this model's own output routes back
		// to itself or a not-yet-drained sibling ahead of it in the
		// in-cycle, later sibling firings that try to feed it back will
		// see it already active and raise the feedback-loop error.
		s.active[ms] = true
		for _, pv := range out.Items() {
			s.emitOutput(ms, pv)
			if err := s.routeAndBin(ms, pv); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Simulator[V]) emitOutput(ms ModelHandle[V], pv PinValue[V]) {
	for _, l := range s.listeners {
		l.OutputEvent(ms.atomic, pv, s.tNext)
	}
}

// routeAndBin routes pv from source's output pin (source nil means an
// externally-injected value), binning each consumer into active (Moore) or
// pending_mealy, and raising MealyFeedbackLoopError for a Mealy consumer
// that has already produced its output this phase (i.e. is already active).
func (s *Simulator[V]) routeAndBin(source ModelHandle[V], pv PinValue[V]) error {
	consumers, err := s.graph.Route(pv.Pin, source)
	if err != nil {
		return err
	}
	for _, c := range consumers {
		if c.Model.isMealy {
			if s.active[c.Model] {
				return MealyFeedbackLoopError{Model: c.Model.atomic}
			}
			c.Model.input.Put(c.Pin, pv.Value)
			if !s.queuedMealy[c.Model] {
				s.queuedMealy[c.Model] = true
				s.pendingMealy = append(s.pendingMealy, c.Model)
			}
			continue
		}
		c.Model.input.Put(c.Pin, pv.Value)
		s.active[c.Model] = true
	}
	return nil
}

// ComputeNextState is Phase B of the event cycle: runs each active model's
// transition, notifies listeners, reschedules, applies any pending
// structural changes, and returns the new NextEventTime.
func (s *Simulator[V]) ComputeNextState() (Time, error) {
	for ms := range s.active {
		for _, pv := range ms.input.Items() {
			for _, l := range s.listeners {
				l.InputEvent(ms.atomic, pv, s.tNext)
			}
		}

		imminent := ms.tN.Equal(s.tNext)
		hasInput := !ms.input.Empty()
		switch {
		case !hasInput:
			ms.atomic.InternalTransition()
		case imminent:
			ms.atomic.ConfluentTransition(&ms.input)
		default:
			ms.atomic.ExternalTransition(s.tNext.Sub(ms.tL), &ms.input)
		}

		for _, l := range s.listeners {
			l.StateChange(ms.atomic, s.tNext)
		}

		ms.tL = s.tNext.Advance(0) // tL' = tNext + Epsilon, super-dense
		tN, err := ms.nextEventTime(ms.tL)
		if err != nil {
			return s.tNext, err
		}
		ms.tN = tN
		s.schedule.Insert(ms, ms.tN)
	}

	s.graph.ExitProvisional()
	added, removed := s.graph.TakeStructuralChanges()
	for _, ms := range removed {
		s.schedule.Remove(ms)
	}
	for _, ms := range added {
		// A model added mid-step is stamped with the step's event time as
		// its tL, regardless of what it was constructed with: tL/tN are
		// engine bookkeeping, never the model's to set.
		ms.tL = s.tNext
		tN, err := ms.nextEventTime(ms.tL)
		if err != nil {
			return s.tNext, err
		}
		ms.tN = tN
		s.schedule.Insert(ms, ms.tN)
		logrus.Debugf("devs: structural ADD_ATOMIC applied at %v, next event %v", s.tNext, ms.tN)
	}
	s.graph.EnterProvisional()

	s.tNext = s.schedule.MinPriority()
	return s.tNext, nil
}
