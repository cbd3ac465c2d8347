package hybrid

// Locator searches the interval [0, h] for the earliest state-event
// crossing between the system's state at the start (q0) and end (q1) of an
// integration step, refining the crossing time to within a tolerance.
type Locator interface {
	// Locate returns the crossing time (relative to the start of the step),
	// the interpolated state there, and whether a crossing was found at all.
	Locate(sys System, q0, q1 []float64, h float64, stepper Stepper) (t float64, qt []float64, found bool)
}

// BisectionLocator narrows a detected sign change by repeated bisection of
// the step interval, re-integrating from q0 at each candidate time.
type BisectionLocator struct {
	// Eps is the time-interval width at which bisection stops. Zero uses a
	// default of 1e-9.
	Eps float64
	// MaxIter bounds the number of bisection steps regardless of Eps. Zero
	// uses a default of 64.
	MaxIter int
}

func (b BisectionLocator) Locate(sys System, q0, q1 []float64, h float64, stepper Stepper) (float64, []float64, bool) {
	m := sys.NumEventIndicators()
	if m == 0 {
		return 0, nil, false
	}
	z0 := make([]float64, m)
	z1 := make([]float64, m)
	sys.StateEventFunc(q0, z0)
	sys.StateEventFunc(q1, z1)

	changed := false
	for i := range z0 {
		if sign(z0[i]) != sign(z1[i]) {
			changed = true
			break
		}
	}
	if !changed {
		return 0, nil, false
	}

	eps := b.Eps
	if eps <= 0 {
		eps = 1e-9
	}
	maxIter := b.MaxIter
	if maxIter <= 0 {
		maxIter = 64
	}

	lo, hi := 0.0, h
	loZ := z0
	qAtLo := q0
	for iter := 0; iter < maxIter && hi-lo > eps; iter++ {
		mid := (lo + hi) / 2
		qMid := stepper.Step(sys, q0, mid)
		zMid := make([]float64, m)
		sys.StateEventFunc(qMid, zMid)

		crossedBeforeMid := false
		for i := range loZ {
			if sign(loZ[i]) != sign(zMid[i]) {
				crossedBeforeMid = true
				break
			}
		}
		if crossedBeforeMid {
			hi = mid
		} else {
			lo, loZ, qAtLo = mid, zMid, qMid
		}
	}
	return lo, qAtLo, true
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
