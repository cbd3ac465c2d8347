package lp

import "fmt"

// RollbackExhaustedError is raised when a rollback needs to restore a state
// earlier than any checkpoint retained for this LP. This should not happen
// under normal fossil collection, which always keeps the checkpoint at or
// before GVT; seeing it indicates GVT advanced past a message still in
// flight.
type RollbackExhaustedError struct {
	Model any
}

func (e RollbackExhaustedError) Error() string {
	return fmt.Sprintf("devs/lp: model %v has no checkpoint old enough to roll back to", e.Model)
}
