// Package models collects small, reusable atomic models used to exercise
// the engine end to end: a population of independent decaying agents, a
// generator feeding a hybrid reset block, a cell-space fire-spread grid,
// and a three-node Mealy feedback triangle. These are test fixtures, not a
// model library — each one is deliberately minimal.
package models
