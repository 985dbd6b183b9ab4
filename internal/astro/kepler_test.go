package astro

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestSolveKeplerResidual(t *testing.T) {
	for e := 0.0; e <= 0.21; e += 0.01 {
		for m := -720.0; m <= 720.0; m += 7.5 {
			got := SolveKepler(m, e)
			if r := keplerResidual(got, m, e); math.Abs(r) >= 1e-6 {
				t.Errorf("SolveKepler(%v, %.2f) = %v, residual %v", m, e, got, r)
			}
		}
	}
}

func TestSolveKeplerCircular(t *testing.T) {
	for m := 0.0; m < 360; m += 15 {
		if got := SolveKepler(m, 0); !scalar.EqualWithinAbs(got, m, 1e-9) {
			t.Errorf("SolveKepler(%v, 0) = %v, want %v", m, got, m)
		}
	}
}

func TestSolveKeplerPerihelionAphelion(t *testing.T) {
	const e = 0.20563593

	if got := SolveKepler(0, e); got != 0 {
		t.Errorf("SolveKepler(0, e) = %v, want exactly 0", got)
	}
	if got := SolveKepler(180, e); !scalar.EqualWithinAbs(got, 180, 1e-9) {
		t.Errorf("SolveKepler(180, e) = %v, want 180", got)
	}
}

func TestSolveKeplerNormalizesInput(t *testing.T) {
	const e = 0.0934
	a := SolveKepler(30, e)
	b := SolveKepler(30+360*3, e)
	c := SolveKepler(30-360, e)
	if !scalar.EqualWithinAbs(a, b, 1e-9) || !scalar.EqualWithinAbs(a, c, 1e-9) {
		t.Errorf("equivalent mean anomalies disagree: %v %v %v", a, b, c)
	}
}

func TestSolveKeplerLeadsMeanAnomaly(t *testing.T) {
	// On the outbound half of the orbit E runs ahead of M.
	const e = 0.1
	for m := 10.0; m < 180; m += 10 {
		if got := SolveKepler(m, e); got <= m {
			t.Errorf("SolveKepler(%v, %v) = %v, want > M", m, e, got)
		}
	}
}

// keplerResidual returns E - e·sin(E) - M in radians for anomalies in degrees.
func keplerResidual(eccentricAnomalyDeg, meanAnomalyDeg, eccentricity float64) float64 {
	e := Radians(eccentricAnomalyDeg)
	m := Radians(NormalizeAngleDeg(meanAnomalyDeg))
	return e - eccentricity*math.Sin(e) - m
}
