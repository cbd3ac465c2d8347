// Package sim provides the ambient support the devsim CLI needs around the
// devs engine itself: deterministic, subsystem-partitioned RNG (see
// PartitionedRNG) and the end-of-run summary format (see RunSummary).
//
// It does not model anything DEVS-specific; the scenario fixtures and
// engines live under devs/.
package sim
