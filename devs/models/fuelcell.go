package models

import (
	"fmt"

	"github.com/devsim-go/devsim/devs"
	"github.com/devsim-go/devsim/devs/cellspace"
)

// IgnitePin is the input pin every FuelCell listens on for an ignition
// signal from a neighbor (or from BuildFireGrid's initial ignition set).
const IgnitePin devs.Pin = "ignite"

// FuelCell is one cell in a fire-spread grid: idle until ignited, then
// burns for a fixed duration before exhausting its fuel and going dark.
// Each cell emits on its own uniquely-named output pin, since the routing
// graph's edges are keyed by a single global pin namespace — see
// mealyRelay in the core package's own tests for the same convention.
type FuelCell struct {
	x, y int
	pin  devs.Pin

	fuel         int
	burnDuration float64
	burning      bool
	burnedOut    bool
}

// NewFuelCell builds a cell at (x, y). If startBurning is true the cell
// begins alight at t=0 — used to seed the initial ignition point(s).
func NewFuelCell(x, y, fuel int, burnDuration float64, startBurning bool) *FuelCell {
	return &FuelCell{
		x: x, y: y,
		pin:          devs.Pin(fmt.Sprintf("ignite@%d,%d", x, y)),
		fuel:         fuel,
		burnDuration: burnDuration,
		burning:      startBurning && fuel > 0,
	}
}

func (c *FuelCell) OutPin() devs.Pin { return c.pin }
func (c *FuelCell) Burning() bool    { return c.burning }
func (c *FuelCell) BurnedOut() bool  { return c.burnedOut }
func (c *FuelCell) X() int           { return c.x }
func (c *FuelCell) Y() int           { return c.y }

func (c *FuelCell) TimeAdvance() float64 {
	if c.burning && !c.burnedOut {
		return c.burnDuration
	}
	return devs.Infinity().T
}

func (c *FuelCell) Output(out *devs.Bag[cellspace.CellEvent[int]]) {
	if c.burning && !c.burnedOut {
		out.Put(c.pin, cellspace.CellEvent[int]{X: c.x, Y: c.y, Value: c.fuel})
	}
}

func (c *FuelCell) InternalTransition() {
	c.burning = false
	c.burnedOut = true
	c.fuel = 0
}

func (c *FuelCell) ExternalTransition(elapsed float64, in *devs.Bag[cellspace.CellEvent[int]]) {
	if !c.burnedOut && !c.burning && c.fuel > 0 && len(in.ForPin(IgnitePin)) > 0 {
		c.burning = true
	}
}

// ConfluentTransition fires when a cell finishes its own burn in the same
// instant a neighbor tries to ignite it: the internal exhaustion wins,
// since there is no fuel left to restart combustion.
func (c *FuelCell) ConfluentTransition(in *devs.Bag[cellspace.CellEvent[int]]) {
	c.InternalTransition()
}

// fuelCellCheckpoint is the opaque SaveState handle for a FuelCell.
type fuelCellCheckpoint struct {
	fuel      int
	burning   bool
	burnedOut bool
}

func (c *FuelCell) SaveState() any {
	return fuelCellCheckpoint{fuel: c.fuel, burning: c.burning, burnedOut: c.burnedOut}
}

func (c *FuelCell) RestoreState(h any) {
	cp := h.(fuelCellCheckpoint)
	c.fuel, c.burning, c.burnedOut = cp.fuel, cp.burning, cp.burnedOut
}

func (c *FuelCell) GCState(any) {}

// BuildFireGrid wires a bounds.Width x bounds.Height grid of fuel cells with
// 8-neighborhood spread, igniting the cells listed in ignite at t=0.
// Returns the graph and a coordinate-addressed map of handles for
// inspecting cell state after a run.
func BuildFireGrid(bounds cellspace.Bounds, fuel int, burnDuration float64, ignite [][2]int) (*devs.Graph[cellspace.CellEvent[int]], map[[2]int]devs.ModelHandle[cellspace.CellEvent[int]], error) {
	ignited := make(map[[2]int]bool, len(ignite))
	for _, xy := range ignite {
		ignited[xy] = true
	}

	g := devs.NewGraph[cellspace.CellEvent[int]]()
	cells := make(map[[2]int]devs.ModelHandle[cellspace.CellEvent[int]], bounds.Width*bounds.Height)
	for y := 0; y < bounds.Height; y++ {
		for x := 0; x < bounds.Width; x++ {
			xy := [2]int{x, y}
			cell := NewFuelCell(x, y, fuel, burnDuration, ignited[xy])
			h, err := g.AddAtomic(cell, devs.Zero)
			if err != nil {
				return nil, nil, err
			}
			cells[xy] = h
		}
	}

	for y := 0; y < bounds.Height; y++ {
		for x := 0; x < bounds.Width; x++ {
			from := cells[[2]int{x, y}].Model().(*FuelCell)
			for _, d := range cellspace.Neighbors8 {
				nx, ny := x+d[0], y+d[1]
				if !bounds.Contains(nx, ny, 0) {
					continue
				}
				g.ConnectPinToAtomic(from.OutPin(), IgnitePin, cells[[2]int{nx, ny}])
			}
		}
	}

	return g, cells, nil
}
