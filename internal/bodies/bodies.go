// Package bodies holds the static per-body tables: J2000 Keplerian elements
// for the eight planets and the physical/display data used by renderers.
package bodies

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBody is returned when a body id is not in the element table.
var ErrUnknownBody = errors.New("unknown body")

// ID identifies a body. Planet ids are the lowercase English names.
type ID string

const (
	Sun     ID = "sun"
	Mercury ID = "mercury"
	Venus   ID = "venus"
	Earth   ID = "earth"
	Mars    ID = "mars"
	Jupiter ID = "jupiter"
	Saturn  ID = "saturn"
	Uranus  ID = "uranus"
	Neptune ID = "neptune"
)

// Planets lists the orbiting bodies in order of distance from the Sun.
var Planets = []ID{Mercury, Venus, Earth, Mars, Jupiter, Saturn, Uranus, Neptune}

// All lists the Sun followed by the planets.
var All = append([]ID{Sun}, Planets...)

// Parse resolves a case-insensitive body name.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := physical[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBody, s)
	}
	return id, nil
}

// IsPlanet reports whether id has orbital elements.
func (id ID) IsPlanet() bool {
	_, ok := elements[id]
	return ok
}

// String returns the id.
func (id ID) String() string {
	return string(id)
}

// OrbitalElements are first-order Keplerian elements at the J2000 epoch.
type OrbitalElements struct {
	SemiMajorAxisAU        float64 `json:"semi_major_axis_au"`       // a
	Eccentricity           float64 `json:"eccentricity"`             // e, 0 <= e < 1
	InclinationDeg         float64 `json:"inclination_deg"`          // i
	MeanLongitudeDeg       float64 `json:"mean_longitude_deg"`       // L at epoch
	PerihelionLongitudeDeg float64 `json:"perihelion_longitude_deg"` // ϖ
	AscendingNodeDeg       float64 `json:"ascending_node_deg"`       // Ω
	PeriodDays             float64 `json:"period_days"`              // sidereal period, > 0
}

// PerihelionAU returns the closest approach distance.
func (e OrbitalElements) PerihelionAU() float64 {
	return e.SemiMajorAxisAU * (1 - e.Eccentricity)
}

// AphelionAU returns the farthest distance.
func (e OrbitalElements) AphelionAU() float64 {
	return e.SemiMajorAxisAU * (1 + e.Eccentricity)
}

var elements = map[ID]OrbitalElements{
	Mercury: {0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593, 87.969},
	Venus:   {0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255, 224.701},
	Earth:   {1.00000261, 0.01671123, 0.00001531, 100.46457166, 102.93768193, 0.0, 365.256},
	Mars:    {1.52371034, 0.09339410, 1.84969142, 355.45332744, 336.04084219, 49.55953891, 686.980},
	Jupiter: {5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909, 4332.589},
	Saturn:  {9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448, 10759.22},
	Uranus:  {19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503, 30688.5},
	Neptune: {30.06992276, 0.00859048, 1.77004347, 304.88003451, 44.96476227, 131.78422574, 60182},
}

// Elements returns the orbital elements for a planet. The Sun and any id not
// in the table yield ErrUnknownBody.
func Elements(id ID) (OrbitalElements, error) {
	el, ok := elements[id]
	if !ok {
		return OrbitalElements{}, fmt.Errorf("%w: %q", ErrUnknownBody, string(id))
	}
	return el, nil
}
