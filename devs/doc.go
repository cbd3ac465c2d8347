// Package devs provides the core sequential discrete-event simulation
// engine: the super-dense clock, the priority schedule, the atomic model
// protocol, the routing graph, and the two-phase event cycle that drives
// them.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - time.go: the super-dense (t, c) clock and its lexicographic order
//   - atomic.go: the Atomic/MealyAtomic protocol and per-model bookkeeping
//   - graph.go: the routing hypergraph and its provisional mutation log
//   - simulator.go: the two-phase event cycle (ComputeNextOutput/ComputeNextState)
//
// # Architecture
//
// devs defines the engine and the interfaces a host's models implement;
// everything built on top lives in sub-packages:
//   - devs/lp: per-atomic speculative executor for the optimistic simulator
//   - devs/optimistic: the Time Warp multi-LP driver (worker pool, GVT, fossil collection)
//   - devs/hybrid: the ODE integrator / event locator wrapper exposing a
//     continuous system as a single Atomic
//   - devs/models: small atomic fixtures used by the end-to-end test scenarios
//   - devs/cellspace: the (x, y, z, value) event and bounds types used by
//     cell-space models
//   - devs/config: YAML scenario configuration for the cmd/ CLI
//
// # Key Interfaces
//
// The extension points are small, capability-style interfaces:
//   - Atomic: time-advance, output, and the three transition functions
//   - MealyAtomic: optional — output that may depend on input received at
//     the same instant, queried with a type assertion rather than a tag
//   - StateSaver, OutputGC: optional — state checkpoint/restore/gc for the
//     optimistic simulator
//   - EventListener: observes output, input, and state-change events
//   - CoupledModel: a composite that knows how to install itself into a Graph
package devs
