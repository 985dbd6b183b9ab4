// Package orbit turns J2000 orbital elements into heliocentric positions.
package orbit

import (
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// HeliocentricPosition is a body's place at one instant, in AU on the
// heliocentric ecliptic frame. Z is the out-of-ecliptic component.
type HeliocentricPosition struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z"`
	R              float64 `json:"r"`
	TrueAnomalyDeg float64 `json:"true_anomaly_deg"`
	OrbitAngleDeg  float64 `json:"orbit_angle_deg"` // true anomaly + perihelion longitude, [0, 360)
}

// Vec returns the Cartesian part as a vector.
func (p HeliocentricPosition) Vec() astro.Vec3 {
	return astro.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// MeanAnomalyDeg returns the mean anomaly of el at t, normalized to [0, 360).
func MeanAnomalyDeg(el bodies.OrbitalElements, t time.Time) float64 {
	d := astro.DaysSinceJ2000(t)
	return astro.NormalizeAngleDeg(el.MeanLongitudeDeg - el.PerihelionLongitudeDeg + (360/el.PeriodDays)*d)
}

// Calculate returns the heliocentric position described by el at t.
func Calculate(el bodies.OrbitalElements, t time.Time) HeliocentricPosition {
	return FromMeanAnomaly(el, MeanAnomalyDeg(el, t))
}

// FromMeanAnomaly places a body on its orbit for a given mean anomaly.
func FromMeanAnomaly(el bodies.OrbitalElements, meanAnomalyDeg float64) HeliocentricPosition {
	e := el.Eccentricity
	ea := astro.Radians(astro.SolveKepler(meanAnomalyDeg, e))

	xv := math.Cos(ea) - e
	yv := math.Sqrt(1-e*e) * math.Sin(ea)
	v := astro.Degrees(math.Atan2(yv, xv))

	r := el.SemiMajorAxisAU * (1 - e*math.Cos(ea))

	vRad := astro.Radians(v)
	peri := astro.Radians(el.PerihelionLongitudeDeg)
	node := astro.Radians(el.AscendingNodeDeg)
	inc := astro.Radians(el.InclinationDeg)

	// Position in the orbital plane, measured from the ascending node
	xOrbit := r * math.Cos(vRad+peri-node)
	yOrbit := r * math.Sin(vRad+peri-node)

	return HeliocentricPosition{
		X:              xOrbit*math.Cos(node) - yOrbit*math.Cos(inc)*math.Sin(node),
		Y:              xOrbit*math.Sin(node) + yOrbit*math.Cos(inc)*math.Cos(node),
		Z:              yOrbit * math.Sin(inc),
		R:              r,
		TrueAnomalyDeg: v,
		OrbitAngleDeg:  astro.NormalizeAngleDeg(v + el.PerihelionLongitudeDeg),
	}
}

// PositionOf computes the position of a planet at t. Ids without orbital
// elements fail with bodies.ErrUnknownBody.
func PositionOf(id bodies.ID, t time.Time) (HeliocentricPosition, error) {
	el, err := bodies.Elements(id)
	if err != nil {
		return HeliocentricPosition{}, fmt.Errorf("position of %s: %w", id, err)
	}
	return Calculate(el, t), nil
}

// ComputeAllPositions returns the position of every planet at t.
func ComputeAllPositions(t time.Time) map[bodies.ID]HeliocentricPosition {
	out := make(map[bodies.ID]HeliocentricPosition, len(bodies.Planets))
	for _, id := range bodies.Planets {
		el, _ := bodies.Elements(id)
		out[id] = Calculate(el, t)
	}
	return out
}
