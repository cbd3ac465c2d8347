package devs

import "fmt"

// NegativeTimeAdvanceError is raised when an atomic's TimeAdvance returns a
// negative value. Fatal: it aborts the step in progress. The schedule is
// left consistent so the host can inspect state before tearing down.
type NegativeTimeAdvanceError struct {
	Model       any
	TimeAdvance float64
}

func (e NegativeTimeAdvanceError) Error() string {
	return fmt.Sprintf("devs: model %v returned negative time advance %v", e.Model, e.TimeAdvance)
}

// SelfInfluenceError is raised when routing would send an event from a
// model back to itself. Graph.Route returns it for either simulator;
// Connect does not check for self-edges.
type SelfInfluenceError struct {
	Model any
}

func (e SelfInfluenceError) Error() string {
	return fmt.Sprintf("devs: model %v cannot route output to itself", e.Model)
}

// MealyFeedbackLoopError is raised when a Mealy consumer would be scheduled
// for output after it has already been finalized (moved to active) in the
// current output phase — i.e. a cycle of purely-Mealy models in a single
// output resolution.
type MealyFeedbackLoopError struct {
	Model any
}

func (e MealyFeedbackLoopError) Error() string {
	return fmt.Sprintf("devs: feedback loop detected resolving Mealy output for model %v", e.Model)
}

// StructuralMisuseError describes a graph mutation issued outside
// provisional mode while a simulation step is in progress. Nothing in this
// module returns it: Graph never rejects a mutation.
type StructuralMisuseError struct {
	Op string
}

func (e StructuralMisuseError) Error() string {
	return fmt.Sprintf("devs: structural mutation %q issued outside provisional mode", e.Op)
}
