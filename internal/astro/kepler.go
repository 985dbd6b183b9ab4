package astro

import "math"

// KeplerIterations is the fixed number of Newton-Raphson steps taken by
// SolveKepler. Planetary eccentricities (e <= ~0.21) reach double precision
// within six steps; the count is not a robustness guarantee for highly
// eccentric orbits and e >= 1 is not supported.
const KeplerIterations = 10

// SolveKepler solves Kepler's equation E - e·sin(E) = M for the eccentric
// anomaly. The mean anomaly is given in degrees and normalized to [0, 360)
// before solving; the eccentric anomaly is returned in degrees.
func SolveKepler(meanAnomalyDeg, eccentricity float64) float64 {
	m := Radians(NormalizeAngleDeg(meanAnomalyDeg))

	e := m
	for i := 0; i < KeplerIterations; i++ {
		delta := e - eccentricity*math.Sin(e) - m
		e -= delta / (1 - eccentricity*math.Cos(e))
	}

	return Degrees(e)
}
