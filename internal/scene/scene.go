// Package scene maps engine output into a renderer's coordinate system.
//
// Renderers use a y-up frame: the ecliptic plane is X/Z and Y points out of
// it. Distances are in display units rather than AU, compressed so the inner
// planets stay visible next to the giants.
package scene

import (
	"fmt"
	"math"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

const (
	// MinOrbitRadius is the display radius of a zero-distance orbit.
	MinOrbitRadius = 12.0

	// DefaultRingSegments is the number of segments in a sampled orbit ring.
	DefaultRingSegments = 128
)

// DisplayRadius maps a heliocentric distance in AU to display units: linear
// inside 2 AU, power-law compressed beyond.
func DisplayRadius(distanceAU float64) float64 {
	if distanceAU < 2 {
		return MinOrbitRadius + distanceAU*12
	}
	return MinOrbitRadius + 24 + math.Pow(distanceAU-2, 0.4)*8
}

// ToRenderer remaps an ecliptic vector (z out of plane) into the y-up frame.
func ToRenderer(v astro.Vec3) astro.Vec3 {
	return astro.Vec3{X: v.X, Y: v.Z, Z: v.Y}
}

// OrbitGeometry is the scaled ellipse a body is drawn on.
type OrbitGeometry struct {
	Body           bodies.ID `json:"body"`
	A              float64   `json:"a"` // scaled semi-major axis
	B              float64   `json:"b"` // scaled semi-minor axis
	Eccentricity   float64   `json:"eccentricity"`
	InclinationDeg float64   `json:"inclination_deg"`
}

// NewOrbitGeometry builds the display ellipse for a planet from its display
// distance and its orbital elements.
func NewOrbitGeometry(id bodies.ID) (OrbitGeometry, error) {
	el, err := bodies.Elements(id)
	if err != nil {
		return OrbitGeometry{}, fmt.Errorf("orbit geometry: %w", err)
	}
	p, err := bodies.Lookup(id)
	if err != nil {
		return OrbitGeometry{}, fmt.Errorf("orbit geometry: %w", err)
	}

	a := DisplayRadius(p.DistanceAU)
	return OrbitGeometry{
		Body:           id,
		A:              a,
		B:              a * math.Sqrt(1-el.Eccentricity*el.Eccentricity),
		Eccentricity:   el.Eccentricity,
		InclinationDeg: el.InclinationDeg,
	}, nil
}

// AllOrbits returns the geometry of every planet in table order.
func AllOrbits() []OrbitGeometry {
	out := make([]OrbitGeometry, 0, len(bodies.Planets))
	for _, id := range bodies.Planets {
		g, _ := NewOrbitGeometry(id)
		out = append(out, g)
	}
	return out
}

// Place returns the renderer-space point at orbit angle theta (radians).
// The ellipse lies in X/Z and is tipped about X by the inclination.
func (g OrbitGeometry) Place(theta float64) astro.Vec3 {
	xo := g.A * math.Cos(theta)
	zo := g.B * math.Sin(theta)

	if g.InclinationDeg == 0 {
		return astro.Vec3{X: xo, Y: 0, Z: zo}
	}

	inc := astro.Radians(g.InclinationDeg)
	return astro.Vec3{X: xo, Y: zo * math.Sin(inc), Z: zo * math.Cos(inc)}
}

// Ring samples the ellipse into segments+1 points; the last point closes the
// loop on the first. Non-positive segments use DefaultRingSegments.
func (g OrbitGeometry) Ring(segments int) []astro.Vec3 {
	if segments <= 0 {
		segments = DefaultRingSegments
	}
	points := make([]astro.Vec3, 0, segments+1)
	for i := 0; i <= segments; i++ {
		theta := float64(i) / float64(segments) * 2 * math.Pi
		points = append(points, g.Place(theta))
	}
	return points
}
