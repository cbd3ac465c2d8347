// Package lp implements the Logical Process: the per-atomic speculative
// executor driven by the optimistic (Time Warp) simulator in devs/optimistic.
// An LP owns exactly one devs.Atomic and runs it ahead of global virtual
// time, retracting incorrect work via anti-messages when a late-arriving
// input proves a prior speculation wrong.
package lp

import (
	"github.com/google/uuid"

	"github.com/devsim-go/devsim/devs"
)

// Kind distinguishes an ordinary output delivery from a rollback retraction.
type Kind int

const (
	// IO carries a value delivered at Time from Sender to the owning LP.
	IO Kind = iota
	// RB is an anti-message: discard everything Sender sent at time >= Time.
	RB
)

func (k Kind) String() string {
	if k == RB {
		return "RB"
	}
	return "IO"
}

// Message is the unit of inter-LP communication: an output value (IO) or a
// retraction of previously sent output (RB). ID lets a discarded or
// fossil-collected message still be cross-referenced in logs after its
// payload is gone, since pointer identity is unreliable once state is
// collected.
type Message[V any] struct {
	ID     uuid.UUID
	Kind   Kind
	Time   devs.Time
	Sender *LP[V]
	PV     devs.PinValue[V]
}

// newIO builds an IO message stamped with a fresh correlation id.
func newIO[V any](t devs.Time, sender *LP[V], pv devs.PinValue[V]) Message[V] {
	return Message[V]{ID: uuid.New(), Kind: IO, Time: t, Sender: sender, PV: pv}
}

// newRB builds an anti-message retracting everything sender sent at or
// after t.
func newRB[V any](t devs.Time, sender *LP[V]) Message[V] {
	return Message[V]{ID: uuid.New(), Kind: RB, Time: t, Sender: sender}
}
