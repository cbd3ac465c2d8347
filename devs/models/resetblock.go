package models

import (
	"github.com/devsim-go/devsim/devs"
	"github.com/devsim-go/devsim/devs/hybrid"
)

// ResetBlock integrates dx/dt = -1 and resets to resetValue every time x
// reaches zero. Because its own time-event horizon is exactly the distance
// remaining to zero, TimeEventFunc reports it directly rather than relying
// on a state-event crossing search.
type ResetBlock struct {
	resetValue float64

	resets           int
	pulses           int
	confluentFirings int
	lastElapsed      float64
}

// NewResetBlock builds a block that resets to resetValue each time it
// decays to zero.
func NewResetBlock(resetValue float64) *ResetBlock {
	return &ResetBlock{resetValue: resetValue}
}

func (r *ResetBlock) NumStateVariables() int  { return 1 }
func (r *ResetBlock) NumEventIndicators() int { return 0 }

func (r *ResetBlock) Init(q []float64) { q[0] = r.resetValue }

func (r *ResetBlock) DerFunc(q, dq []float64) { dq[0] = -1 }

func (r *ResetBlock) StateEventFunc(q, z []float64) {}

// TimeEventFunc returns the remaining time until x hits zero: since the
// slope is exactly -1, that remaining time equals the current value.
func (r *ResetBlock) TimeEventFunc(q []float64) float64 { return q[0] }

func (r *ResetBlock) InternalEvent(q []float64, stateEvent []bool) {
	r.reset(q)
}

func (r *ResetBlock) ExternalEvent(q []float64, elapsed float64, xb *devs.Bag[[]float64]) {
	r.lastElapsed = elapsed
	r.pulses += len(xb.ForPin("in"))
}

// ConfluentEvent is reached whenever the generator's pulse lands exactly on
// this block's own zero-crossing: per the DEVS confluent contract, the
// internal reset is applied before the external pulse is counted.
func (r *ResetBlock) ConfluentEvent(q []float64, stateEvent []bool, xb *devs.Bag[[]float64]) {
	r.reset(q)
	r.lastElapsed = 0
	r.pulses += len(xb.ForPin("in"))
	r.confluentFirings++
}

func (r *ResetBlock) OutputFunc(q []float64, stateEvent []bool, yb *devs.Bag[[]float64]) {
	yb.Put("out", append([]float64(nil), q...))
}

func (r *ResetBlock) PostStep(q []float64) {}

func (r *ResetBlock) reset(q []float64) {
	q[0] = r.resetValue
	r.resets++
}

// Resets, Pulses, ConfluentFirings, and LastElapsed expose the block's
// bookkeeping for tests.
func (r *ResetBlock) Resets() int           { return r.resets }
func (r *ResetBlock) Pulses() int           { return r.pulses }
func (r *ResetBlock) ConfluentFirings() int { return r.confluentFirings }
func (r *ResetBlock) LastElapsed() float64  { return r.lastElapsed }

// WrapResetBlock builds the devs.Atomic driving r, using a fixed step equal
// to its own reset period so the generator's matching period always lands
// exactly on the reset instant.
func WrapResetBlock(r *ResetBlock) devs.Atomic[[]float64] {
	return hybrid.Wrap(r, hybrid.Config{Step: r.resetValue})
}

// Generator emits a pulse on "in" every period, with no state beyond a
// firing count.
type Generator struct {
	period float64
	fired  int
}

func NewGenerator(period float64) *Generator {
	return &Generator{period: period}
}

func (g *Generator) TimeAdvance() float64 { return g.period }
func (g *Generator) Output(out *devs.Bag[[]float64]) {
	out.Put("pulse", []float64{1})
}
func (g *Generator) InternalTransition()                              { g.fired++ }
func (g *Generator) ExternalTransition(float64, *devs.Bag[[]float64]) {}
func (g *Generator) ConfluentTransition(in *devs.Bag[[]float64])      { g.fired++ }

func (g *Generator) Fired() int { return g.fired }

// SaveState, RestoreState, and GCState let a Generator run under the
// optimistic simulator: its only mutable field is fired.
func (g *Generator) SaveState() any     { return g.fired }
func (g *Generator) RestoreState(h any) { g.fired = h.(int) }
func (g *Generator) GCState(any)        {}

// BuildResetScenario wires a Generator into a ResetBlock with matching
// periods, so every generator pulse lands exactly on the block's own
// zero-crossing.
func BuildResetScenario(period float64) (*devs.Graph[[]float64], *Generator, *ResetBlock, error) {
	g := devs.NewGraph[[]float64]()
	gen := NewGenerator(period)
	rb := NewResetBlock(period)

	if _, err := g.AddAtomic(gen, devs.Zero); err != nil {
		return nil, nil, nil, err
	}
	rbHandle, err := g.AddAtomic(WrapResetBlock(rb), devs.Zero)
	if err != nil {
		return nil, nil, nil, err
	}
	g.ConnectPinToAtomic("pulse", "in", rbHandle)
	return g, gen, rb, nil
}
