package models

import (
	"math/rand"

	"github.com/devsim-go/devsim/devs"
)

// DecayAgent fires exactly once, after a single Exponential(rate)-distributed
// holding time, emitting -1 on "out" to signal its own decay. After that it
// is passive forever.
type DecayAgent struct {
	rate  float64
	delay float64
	fired bool
}

// NewDecayAgent samples its one-shot holding time from rng now, so a
// population built from a single *rand.Rand is reproducible under a fixed
// seed (see sim.PartitionedRNG for the subsystem-isolation convention this
// follows).
func NewDecayAgent(rate float64, rng *rand.Rand) *DecayAgent {
	return &DecayAgent{rate: rate, delay: rng.ExpFloat64() / rate}
}

func (d *DecayAgent) TimeAdvance() float64 {
	if d.fired {
		return devs.Infinity().T
	}
	return d.delay
}

func (d *DecayAgent) Output(out *devs.Bag[int]) {
	out.Put("out", -1)
}

func (d *DecayAgent) InternalTransition() {
	d.fired = true
}

func (d *DecayAgent) ExternalTransition(float64, *devs.Bag[int]) {}

func (d *DecayAgent) ConfluentTransition(in *devs.Bag[int]) {
	d.InternalTransition()
}

// Fired reports whether this agent has already decayed.
func (d *DecayAgent) Fired() bool { return d.fired }

// SaveState, RestoreState, and GCState let a DecayAgent run under the
// optimistic simulator: its only mutable field is fired, so a checkpoint is
// just that bool.
func (d *DecayAgent) SaveState() any     { return d.fired }
func (d *DecayAgent) RestoreState(h any) { d.fired = h.(bool) }
func (d *DecayAgent) GCState(any)        {}

// NewDecayPopulation builds a graph of n independent DecayAgents. Each
// emits its decrement on the shared pin "out"; no edges are added, so a
// listener observes every decay unless the caller connects "out" itself.
func NewDecayPopulation(n int, rate float64, rng *rand.Rand) (*devs.Graph[int], []devs.ModelHandle[int], error) {
	g := devs.NewGraph[int]()
	handles := make([]devs.ModelHandle[int], 0, n)
	for i := 0; i < n; i++ {
		h, err := g.AddAtomic(NewDecayAgent(rate, rng), devs.Zero)
		if err != nil {
			return nil, nil, err
		}
		handles = append(handles, h)
	}
	return g, handles, nil
}
