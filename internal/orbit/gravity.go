package orbit

import (
	"fmt"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// GravitationalForce returns the Newtonian attraction in newtons between two
// masses (kg) separated by distanceM meters. A non-positive distance yields 0.
func GravitationalForce(m1, m2, distanceM float64) float64 {
	if distanceM <= 0 {
		return 0
	}
	return astro.G * (m1 * m2) / (distanceM * distanceM)
}

// SunPull returns the Sun's pull on a planet at its mean display distance.
func SunPull(id bodies.ID) (float64, error) {
	if !id.IsPlanet() {
		return 0, fmt.Errorf("sun pull on %s: %w", id, bodies.ErrUnknownBody)
	}
	sun := bodies.MustLookup(bodies.Sun)
	p := bodies.MustLookup(id)
	return GravitationalForce(sun.MassKg, p.MassKg, p.DistanceAU*astro.AUMeters), nil
}
