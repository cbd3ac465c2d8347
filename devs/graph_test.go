package devs

import "testing"

type passiveAtomic struct {
	ta float64
}

func (p *passiveAtomic) TimeAdvance() float64                 { return p.ta }
func (p *passiveAtomic) Output(*Bag[int])                     {}
func (p *passiveAtomic) InternalTransition()                  {}
func (p *passiveAtomic) ExternalTransition(float64, *Bag[int]) {}
func (p *passiveAtomic) ConfluentTransition(*Bag[int])         {}

func mustAddAtomic(t *testing.T, g *Graph[int], a Atomic[int], now Time) ModelHandle[int] {
	t.Helper()
	h, err := g.AddAtomic(a, now)
	if err != nil {
		t.Fatalf("AddAtomic: %v", err)
	}
	return h
}

func TestGraph_AddAtomic_NegativeTimeAdvance_ReturnsError(t *testing.T) {
	// GIVEN an atomic with a negative time advance
	g := NewGraph[int]()

	// WHEN it is added
	_, err := g.AddAtomic(&passiveAtomic{ta: -1}, Zero)

	// THEN a NegativeTimeAdvanceError is returned
	if _, ok := err.(NegativeTimeAdvanceError); !ok {
		t.Fatalf("AddAtomic: got err %v, want NegativeTimeAdvanceError", err)
	}
}

func TestGraph_Route_PinToPinFanOut_ReachesAtomic(t *testing.T) {
	// GIVEN an atomic wired behind a pin->pin fan-out edge
	g := NewGraph[int]()
	target := mustAddAtomic(t, g, &passiveAtomic{ta: Infinity().T}, Zero)
	g.ConnectPinToPin("out", "mid")
	g.ConnectPinToAtomic("mid", "in", target)

	// WHEN Route is called on the originating pin
	consumers, err := g.Route("out", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	// THEN the atomic is reached via the fan-out, on the bound input pin
	if len(consumers) != 1 {
		t.Fatalf("Route: got %d consumers, want 1", len(consumers))
	}
	if consumers[0].Model != target || consumers[0].Pin != "in" {
		t.Errorf("Route: got %+v, want {Pin: in, Model: target}", consumers[0])
	}
}

func TestGraph_Route_SelfInfluence_ReturnsError(t *testing.T) {
	// GIVEN an atomic whose output routes back to itself
	g := NewGraph[int]()
	a := mustAddAtomic(t, g, &passiveAtomic{ta: Infinity().T}, Zero)
	g.ConnectPinToAtomic("out", "in", a)

	// WHEN Route is called with a as the source
	_, err := g.Route("out", a)

	// THEN a SelfInfluenceError is returned
	if _, ok := err.(SelfInfluenceError); !ok {
		t.Fatalf("Route: got err %v, want SelfInfluenceError", err)
	}
}

func TestGraph_ProvisionalMode_DefersStructuralMutation(t *testing.T) {
	// GIVEN a graph in provisional mode
	g := NewGraph[int]()
	g.EnterProvisional()

	// WHEN an atomic is added
	h, err := g.AddAtomic(&passiveAtomic{ta: Infinity().T}, Zero)
	if err != nil {
		t.Fatalf("AddAtomic: %v", err)
	}

	// THEN the graph's atomic set is not yet mutated...
	if g.atomics[h] {
		t.Errorf("AddAtomic under provisional mode applied immediately")
	}

	// ...until ExitProvisional drains the pending log
	g.ExitProvisional()
	if !g.atomics[h] {
		t.Errorf("ExitProvisional: atomic not registered after drain")
	}
	added, removed := g.TakeStructuralChanges()
	if len(added) != 1 || added[0] != h {
		t.Errorf("TakeStructuralChanges: got added=%v, want [h]", added)
	}
	if len(removed) != 0 {
		t.Errorf("TakeStructuralChanges: got removed=%v, want none", removed)
	}
}

func TestGraph_RemovePin_DropsAllTouchingEdges(t *testing.T) {
	// GIVEN a pin wired both as a source and as a pin->pin target
	g := NewGraph[int]()
	target := mustAddAtomic(t, g, &passiveAtomic{ta: Infinity().T}, Zero)
	g.ConnectPinToPin("a", "b")
	g.ConnectPinToAtomic("b", "in", target)

	// WHEN RemovePin("b") is called
	g.RemovePin("b")

	// THEN routing through "a" no longer reaches the target
	consumers, err := g.Route("a", nil)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(consumers) != 0 {
		t.Errorf("Route after RemovePin: got %d consumers, want 0", len(consumers))
	}
}
