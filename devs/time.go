// Package devs implements the sequential DEVS (Discrete Event System
// Specification) simulation engine: the super-dense clock, the priority
// schedule, the atomic model protocol, the routing graph, and the two-phase
// event cycle that drives them.
package devs

import (
	"math"
)

// Time is the super-dense simulation clock: a pair (T, C) ordered
// lexicographically. T is real simulation time; C is a micro-step counter
// that totally orders transitions occurring at the same real time.
type Time struct {
	T float64
	C uint64
}

// Zero is the initial simulation time (0, 0).
var Zero = Time{T: 0, C: 0}

// Infinity is the sentinel time used by passive models and an empty schedule.
func Infinity() Time {
	return Time{T: math.Inf(1), C: 0}
}

// IsInfinity reports whether t is the infinity sentinel.
func (t Time) IsInfinity() bool {
	return math.IsInf(t.T, 1)
}

// Compare returns -1, 0, or 1 as t is less than, equal to, or greater than
// other, comparing lexicographically on (T, C).
func (t Time) Compare(other Time) int {
	switch {
	case t.T < other.T:
		return -1
	case t.T > other.T:
		return 1
	case t.C < other.C:
		return -1
	case t.C > other.C:
		return 1
	default:
		return 0
	}
}

// Less reports whether t sorts before other.
func (t Time) Less(other Time) bool {
	return t.Compare(other) < 0
}

// Equal reports whether t and other denote the same instant.
func (t Time) Equal(other Time) bool {
	return t.Compare(other) == 0
}

// Advance adds a non-negative real-time increment dt to t.
//
//   - dt == 0 keeps T unchanged and increments C: the two events occur at
//     the same real time but t strictly follows in causal order.
//   - dt > 0 moves to real time T+dt and resets C to 0.
//
// A negative dt is a caller error (ta() < 0 is NegativeTimeAdvanceError,
// raised by the simulator before Advance is ever called with it).
func (t Time) Advance(dt float64) Time {
	if dt == 0 {
		return Time{T: t.T, C: t.C + 1}
	}
	return Time{T: t.T + dt, C: 0}
}

// Epsilon is the fixed micro-step used to reschedule a model strictly after
// the event instant it just fired at, per spec: tL' = tNext + Epsilon.
var Epsilon = Time{T: 0, C: 1}

// Sub returns the real-valued elapsed interval between t and the earlier
// instant since. Only the real component participates; C is ignored, matching
// the elapsed-time argument passed to ExternalTransition.
func (t Time) Sub(since Time) float64 {
	return t.T - since.T
}

// ApproxEqual compares the real components of t and other within eps,
// ignoring C. This is the optional floating-point variant of Time equality
// mentioned for callers that derive T from an external sampled clock.
func (t Time) ApproxEqual(other Time, eps float64) bool {
	return math.Abs(t.T-other.T) <= eps
}

// Min returns the lexicographically smaller of a and b.
func Min(a, b Time) Time {
	if a.Less(b) {
		return a
	}
	return b
}
