package models

import (
	"math"
	"math/rand"
	"testing"

	"github.com/devsim-go/devsim/devs"
)

// survivalListener counts "out" events (each one a single agent's decay).
type survivalListener struct {
	decays int
}

func (l *survivalListener) OutputEvent(model devs.Atomic[int], pv devs.PinValue[int], t devs.Time) {
	if pv.Pin == "out" {
		l.decays++
	}
}
func (l *survivalListener) InputEvent(devs.Atomic[int], devs.PinValue[int], devs.Time) {}
func (l *survivalListener) StateChange(devs.Atomic[int], devs.Time)                    {}

func TestDecayPopulation_SurvivalFraction_TracksExponentialDecay(t *testing.T) {
	// GIVEN a population of independent exponential-decay agents
	const n = 5000
	const rate = 0.5
	rng := rand.New(rand.NewSource(1))
	g, handles, err := NewDecayPopulation(n, rate, rng)
	if err != nil {
		t.Fatalf("NewDecayPopulation: %v", err)
	}
	sim := devs.NewSimulatorFromGraph(g)
	listener := &survivalListener{}
	sim.AddEventListener(listener)

	// WHEN the simulation runs to a fixed horizon
	const horizon = 2.0
	for {
		next := sim.NextEventTime()
		if next.IsInfinity() || horizon < next.T {
			break
		}
		if _, err := sim.ExecNextEvent(); err != nil {
			t.Fatalf("ExecNextEvent: %v", err)
		}
	}

	// THEN the observed survival fraction tracks exp(-rate*horizon) within
	// the tolerance a population of this size supports
	surviving := 0
	for _, h := range handles {
		if !h.Model().(*DecayAgent).Fired() {
			surviving++
		}
	}
	got := float64(surviving) / float64(n)
	want := math.Exp(-rate * horizon)
	if math.Abs(got-want) > 0.03 {
		t.Errorf("survival fraction: got %v, want within 0.03 of %v", got, want)
	}

	// AND every decay was also visible as an output event
	if listener.decays != n-surviving {
		t.Errorf("decays observed: got %d, want %d", listener.decays, n-surviving)
	}
}

func TestDecayAgent_FiresOnlyOnce(t *testing.T) {
	// GIVEN a single decay agent
	rng := rand.New(rand.NewSource(7))
	a := NewDecayAgent(1.0, rng)
	sim, err := devs.NewSimulatorFromAtomic[int](a)
	if err != nil {
		t.Fatalf("NewSimulatorFromAtomic: %v", err)
	}

	// WHEN it fires once
	if _, err := sim.ExecNextEvent(); err != nil {
		t.Fatalf("ExecNextEvent: %v", err)
	}

	// THEN it is passive forever after
	if !a.Fired() {
		t.Fatalf("agent did not fire")
	}
	if !sim.NextEventTime().IsInfinity() {
		t.Errorf("NextEventTime after firing: got %v, want Infinity", sim.NextEventTime())
	}
}
