// Package hybrid wraps a continuous-time ODE system as a single devs.Atomic
// so the sequential or optimistic engine can drive it alongside purely
// discrete-event models.
//
// System is the model contract: a derivative function, a set of state-event
// indicators whose sign changes mark a discontinuity (a bounce, a
// threshold crossing), an optional time-event function for scheduled
// discrete transitions, and the usual DEVS transition/output hooks
// expressed in terms of the state vector instead of a Bag. Stepper advances
// the ODE by one fixed interval (CorrectedEuler, RK4); Locator narrows a
// detected state-event crossing to within a tolerance by bisection. Wrap
// assembles the three into a devs.Atomic[[]float64].
//
// The wrapped atomic's state vector reserves one extra trailing coordinate
// beyond System.NumStateVariables to track the model's own local time,
// advanced by every committed step. System never sees that coordinate:
// TimeEventFunc reports the time remaining until the next time event, not
// an absolute time.
package hybrid
