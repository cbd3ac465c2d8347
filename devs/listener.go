package devs

// EventListener observes a Simulator's activity without being able to
// re-enter it: callbacks run on the caller's thread inside the step that
// produced them and must treat the simulator as read-only.
type EventListener[V any] interface {
	// OutputEvent is called once per produced PinValue, at Output time.
	OutputEvent(model Atomic[V], pv PinValue[V], t Time)

	// InputEvent is called once per delivered PinValue, before the
	// receiving model's transition function runs.
	InputEvent(model Atomic[V], pv PinValue[V], t Time)

	// StateChange is called once per model transitioned this step, after
	// its transition function has run.
	StateChange(model Atomic[V], t Time)
}
