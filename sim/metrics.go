package sim

import (
	"fmt"
	"time"
)

// RunSummary aggregates statistics about one scenario run for final
// reporting: which driver executed it, how long it took, and whatever
// scenario-specific detail the caller wants surfaced.
type RunSummary struct {
	Kind    string // scenario kind, e.g. "decay", "fire_grid"
	Mode    string // "sequential" or "optimistic"
	Horizon float64

	EventsExecuted int64 // sequential driver only
	Rollbacks      int   // optimistic driver only
	EarlyOutputs   int   // optimistic driver only

	Detail string // scenario-specific one-line summary

	Wall time.Duration
}

// Print displays the run summary at the end of a simulation.
func (s *RunSummary) Print() {
	fmt.Println("=== Simulation Summary ===")
	fmt.Printf("Scenario             : %s\n", s.Kind)
	fmt.Printf("Mode                 : %s\n", s.Mode)
	fmt.Printf("Horizon              : %.4f\n", s.Horizon)
	if s.Mode == "optimistic" {
		fmt.Printf("Rollbacks            : %d\n", s.Rollbacks)
		fmt.Printf("Early outputs pending: %d\n", s.EarlyOutputs)
	} else {
		fmt.Printf("Events executed      : %d\n", s.EventsExecuted)
	}
	fmt.Printf("Detail               : %s\n", s.Detail)
	fmt.Printf("Wall time            : %s\n", s.Wall)
}
