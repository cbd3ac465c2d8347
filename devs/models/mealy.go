package models

import "github.com/devsim-go/devsim/devs"

// MealyPassthrough relays whatever it receives on "in" straight out on its
// own output pin, immediately and without holding state across steps. Three
// of these wired A->B->C->A form the minimal feedback triangle that must be
// rejected with MealyFeedbackLoopError, since resolving A's output requires
// C's, which requires B's, which requires A's.
//
// outPin must be distinct per instance: the routing graph's edges are keyed
// by a single global pin namespace.
type MealyPassthrough struct {
	outPin  devs.Pin
	relayed int
}

func NewMealyPassthrough(outPin devs.Pin) *MealyPassthrough {
	return &MealyPassthrough{outPin: outPin}
}

func (m *MealyPassthrough) TimeAdvance() float64                       { return devs.Infinity().T }
func (m *MealyPassthrough) Output(*devs.Bag[int])                      {}
func (m *MealyPassthrough) InternalTransition()                        {}
func (m *MealyPassthrough) ExternalTransition(float64, *devs.Bag[int]) {}
func (m *MealyPassthrough) ConfluentTransition(*devs.Bag[int])         {}

func (m *MealyPassthrough) OutputInternal(*devs.Bag[int]) {}

func (m *MealyPassthrough) OutputConfluent(in *devs.Bag[int], out *devs.Bag[int]) {
	m.relay(in, out)
}

func (m *MealyPassthrough) OutputExternal(elapsed float64, in *devs.Bag[int], out *devs.Bag[int]) {
	m.relay(in, out)
}

func (m *MealyPassthrough) relay(in *devs.Bag[int], out *devs.Bag[int]) {
	for _, v := range in.ForPin("in") {
		m.relayed = v
		out.Put(m.outPin, v)
	}
}

func (m *MealyPassthrough) Relayed() int { return m.relayed }

// SaveState, RestoreState, and GCState let a MealyPassthrough run under the
// optimistic simulator: its only mutable field is relayed.
func (m *MealyPassthrough) SaveState() any     { return m.relayed }
func (m *MealyPassthrough) RestoreState(h any) { m.relayed = h.(int) }
func (m *MealyPassthrough) GCState(any)        {}

// BuildMealyTriangle wires three MealyPassthrough atomics A->B->C->A and
// returns the graph and their handles. Driving it with any injected input
// is expected to raise devs.MealyFeedbackLoopError.
func BuildMealyTriangle() (*devs.Graph[int], [3]devs.ModelHandle[int], error) {
	g := devs.NewGraph[int]()
	a := NewMealyPassthrough("a_out")
	b := NewMealyPassthrough("b_out")
	c := NewMealyPassthrough("c_out")

	ha, err := g.AddAtomic(a, devs.Zero)
	if err != nil {
		return nil, [3]devs.ModelHandle[int]{}, err
	}
	hb, err := g.AddAtomic(b, devs.Zero)
	if err != nil {
		return nil, [3]devs.ModelHandle[int]{}, err
	}
	hc, err := g.AddAtomic(c, devs.Zero)
	if err != nil {
		return nil, [3]devs.ModelHandle[int]{}, err
	}

	g.ConnectPinToAtomic("a_out", "in", hb)
	g.ConnectPinToAtomic("b_out", "in", hc)
	g.ConnectPinToAtomic("c_out", "in", ha)

	return g, [3]devs.ModelHandle[int]{ha, hb, hc}, nil
}
