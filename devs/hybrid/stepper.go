package hybrid

import "gonum.org/v1/gonum/floats"

// Stepper advances a System's state by a fixed interval h, without mutating
// q, and returns the new state.
type Stepper interface {
	Step(sys System, q []float64, h float64) []float64
}

// CorrectedEuler is a predictor-corrector (Heun's method): an Euler
// predictor followed by a trapezoidal correction using the derivative at
// both endpoints. Cheaper per step than RK4, at lower accuracy for stiff
// systems.
type CorrectedEuler struct{}

func (CorrectedEuler) Step(sys System, q []float64, h float64) []float64 {
	n := len(q)
	k1 := make([]float64, n)
	sys.DerFunc(q, k1)

	predictor := make([]float64, n)
	copy(predictor, q)
	floats.AddScaled(predictor, h, k1)

	k2 := make([]float64, n)
	sys.DerFunc(predictor, k2)

	avg := make([]float64, n)
	floats.AddTo(avg, k1, k2)
	floats.Scale(0.5, avg)

	out := make([]float64, n)
	copy(out, q)
	floats.AddScaled(out, h, avg)
	return out
}

// RK4 is the classical fourth-order Runge-Kutta method.
type RK4 struct{}

func (RK4) Step(sys System, q []float64, h float64) []float64 {
	n := len(q)
	displaced := func(scale float64, d []float64) []float64 {
		out := make([]float64, n)
		copy(out, q)
		floats.AddScaled(out, scale, d)
		return out
	}

	k1 := make([]float64, n)
	sys.DerFunc(q, k1)

	k2 := make([]float64, n)
	sys.DerFunc(displaced(h/2, k1), k2)

	k3 := make([]float64, n)
	sys.DerFunc(displaced(h/2, k2), k3)

	k4 := make([]float64, n)
	sys.DerFunc(displaced(h, k3), k4)

	slope := make([]float64, n)
	for i := range slope {
		slope[i] = (k1[i] + 2*k2[i] + 2*k3[i] + k4[i]) / 6
	}

	out := make([]float64, n)
	copy(out, q)
	floats.AddScaled(out, h, slope)
	return out
}
