package bodies

import "fmt"

// Class categorizes bodies for rendering glyphs and colours.
type Class int

const (
	ClassStar  Class = iota // Sun
	ClassInner              // Mercury, Venus, Earth, Mars
	ClassGiant              // Jupiter, Saturn, Uranus, Neptune
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassStar:
		return "star"
	case ClassInner:
		return "inner"
	case ClassGiant:
		return "giant"
	default:
		return "unknown"
	}
}

// Fact is a labelled display value for the detail panel.
type Fact struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Physical holds display and physical data for a body.
type Physical struct {
	ID                 ID      `json:"id"`
	Name               string  `json:"name"`
	Class              Class   `json:"-"`
	RadiusKm           float64 `json:"radius_km"`
	MassKg             float64 `json:"mass_kg"`
	DistanceAU         float64 `json:"distance_au"`          // rounded semi-major axis, 0 for the Sun
	OrbitalPeriodDays  float64 `json:"orbital_period_days"`  // rounded period driving the animation
	RotationPeriodDays float64 `json:"rotation_period_days"` // negative for retrograde rotation
	AxialTiltDeg       float64 `json:"axial_tilt_deg,omitempty"`
	OrbitalSpeedKmS    float64 `json:"orbital_speed_km_s,omitempty"`
	Color              string  `json:"color"`
	HasRings           bool    `json:"has_rings,omitempty"`
	Description        string  `json:"description"`
	Facts              []Fact  `json:"facts"`
}

// Retrograde reports whether the body spins backwards.
func (p Physical) Retrograde() bool {
	return p.RotationPeriodDays < 0
}

// FixedTilt reports whether the body has a configured axial tilt that
// renderers re-apply every frame.
func (p Physical) FixedTilt() bool {
	return p.AxialTiltDeg != 0
}

// Lookup returns the physical data for any body, the Sun included.
func Lookup(id ID) (Physical, error) {
	p, ok := physical[id]
	if !ok {
		return Physical{}, fmt.Errorf("%w: %q", ErrUnknownBody, string(id))
	}
	return p, nil
}

// MustLookup is Lookup for ids known at compile time.
func MustLookup(id ID) Physical {
	p, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return p
}

var physical = map[ID]Physical{
	Sun: {
		ID: Sun, Name: "Sun", Class: ClassStar,
		RadiusKm: 696340, MassKg: 1.989e30,
		RotationPeriodDays: 25.38,
		Color:              "#FFA500",
		Description:        "The G-type main-sequence star at the centre of the solar system, holding 99.86% of its mass.",
		Facts: []Fact{
			{"Type", "G-type main-sequence star"},
			{"Age", "~4.6 billion years"},
			{"Surface temperature", "5,500°C"},
			{"Core temperature", "15 million °C"},
			{"Diameter", "1,392,684 km"},
			{"Surface gravity", "274 m/s²"},
			{"Escape velocity", "617.7 km/s"},
		},
	},
	Mercury: {
		ID: Mercury, Name: "Mercury", Class: ClassInner,
		RadiusKm: 2439.7, MassKg: 3.301e23,
		DistanceAU: 0.387, OrbitalPeriodDays: 88, RotationPeriodDays: 58.646,
		OrbitalSpeedKmS: 47.87,
		Color:           "#9E9E9E",
		Description:     "The smallest planet and the closest to the Sun, with a cratered, moon-like surface and no satellites.",
		Facts: []Fact{
			{"Type", "Terrestrial"},
			{"Surface temperature", "-173°C to 427°C"},
			{"Atmosphere", "Almost none"},
			{"Diameter", "4,879 km"},
			{"Surface gravity", "3.7 m/s²"},
			{"Moons", "0"},
		},
	},
	Venus: {
		ID: Venus, Name: "Venus", Class: ClassInner,
		RadiusKm: 6051.8, MassKg: 4.867e24,
		DistanceAU: 0.723, OrbitalPeriodDays: 224.7, RotationPeriodDays: -243,
		OrbitalSpeedKmS: 35.02,
		Color:           "#F5DEB3",
		Description:     "Earth's near twin in size and mass and the brightest natural object in the night sky after the Moon.",
		Facts: []Fact{
			{"Type", "Terrestrial"},
			{"Surface temperature", "462°C"},
			{"Atmosphere", "Carbon dioxide (96.5%)"},
			{"Diameter", "12,104 km"},
			{"Surface gravity", "8.87 m/s²"},
			{"Moons", "0"},
		},
	},
	Earth: {
		ID: Earth, Name: "Earth", Class: ClassInner,
		RadiusKm: 6371, MassKg: 5.972e24,
		DistanceAU: 1, OrbitalPeriodDays: 365.25, RotationPeriodDays: 1,
		OrbitalSpeedKmS: 29.78,
		Color:           "#1E88E5",
		Description:     "The only world known to harbour life; 71% of its surface is covered by water.",
		Facts: []Fact{
			{"Type", "Terrestrial"},
			{"Surface temperature", "-88°C to 58°C"},
			{"Atmosphere", "Nitrogen (78%), oxygen (21%)"},
			{"Diameter", "12,742 km"},
			{"Surface gravity", "9.8 m/s²"},
			{"Moons", "1 (the Moon)"},
		},
	},
	Mars: {
		ID: Mars, Name: "Mars", Class: ClassInner,
		RadiusKm: 3389.5, MassKg: 6.417e23,
		DistanceAU: 1.524, OrbitalPeriodDays: 687, RotationPeriodDays: 1.03,
		OrbitalSpeedKmS: 24.13,
		Color:           "#D32F2F",
		Description:     "The red planet: a thin atmosphere over volcanoes, canyons, deserts and polar ice caps.",
		Facts: []Fact{
			{"Type", "Terrestrial"},
			{"Surface temperature", "-153°C to 20°C"},
			{"Atmosphere", "Carbon dioxide (95.3%)"},
			{"Diameter", "6,779 km"},
			{"Surface gravity", "3.7 m/s²"},
			{"Moons", "2 (Phobos, Deimos)"},
		},
	},
	Jupiter: {
		ID: Jupiter, Name: "Jupiter", Class: ClassGiant,
		RadiusKm: 69911, MassKg: 1.898e27,
		DistanceAU: 5.203, OrbitalPeriodDays: 4333, RotationPeriodDays: 0.41,
		OrbitalSpeedKmS: 13.07,
		Color:           "#E8A64A",
		Description:     "The largest planet, a hydrogen and helium gas giant 2.5 times as massive as all the others combined.",
		Facts: []Fact{
			{"Type", "Gas giant"},
			{"Surface temperature", "-145°C"},
			{"Atmosphere", "Hydrogen (89.8%), helium (10.2%)"},
			{"Diameter", "139,822 km"},
			{"Surface gravity", "23.1 m/s²"},
			{"Moons", "79+"},
		},
	},
	Saturn: {
		ID: Saturn, Name: "Saturn", Class: ClassGiant,
		RadiusKm: 58232, MassKg: 5.683e26,
		DistanceAU: 9.537, OrbitalPeriodDays: 10759, RotationPeriodDays: 0.45,
		OrbitalSpeedKmS: 9.69,
		Color:           "#F9E076",
		HasRings:        true,
		Description:     "The second largest planet, famous for its ring system and less dense than water.",
		Facts: []Fact{
			{"Type", "Gas giant"},
			{"Surface temperature", "-178°C"},
			{"Atmosphere", "Hydrogen (96.3%), helium (3.25%)"},
			{"Diameter", "116,464 km"},
			{"Surface gravity", "9.0 m/s²"},
			{"Moons", "82+"},
			{"Ring diameter", "~270,000 km"},
		},
	},
	Uranus: {
		ID: Uranus, Name: "Uranus", Class: ClassGiant,
		RadiusKm: 25362, MassKg: 8.681e25,
		DistanceAU: 19.191, OrbitalPeriodDays: 30688.5, RotationPeriodDays: -0.72,
		OrbitalSpeedKmS: 6.81,
		AxialTiltDeg:    97.77,
		Color:           "#4DD0E1",
		Description:     "The first planet found by telescope; its spin axis lies almost in its orbital plane.",
		Facts: []Fact{
			{"Type", "Ice giant"},
			{"Surface temperature", "-224°C"},
			{"Atmosphere", "Hydrogen (83%), helium (15%), methane (2.3%)"},
			{"Diameter", "50,724 km"},
			{"Surface gravity", "8.7 m/s²"},
			{"Moons", "27"},
		},
	},
	Neptune: {
		ID: Neptune, Name: "Neptune", Class: ClassGiant,
		RadiusKm: 24622, MassKg: 1.024e26,
		DistanceAU: 30.069, OrbitalPeriodDays: 60182, RotationPeriodDays: 0.67,
		OrbitalSpeedKmS: 5.43,
		Color:           "#1A237E",
		Description:     "The outermost planet, predicted by mathematics before it was seen; a stormy ice giant.",
		Facts: []Fact{
			{"Type", "Ice giant"},
			{"Surface temperature", "-218°C"},
			{"Atmosphere", "Hydrogen (80%), helium (19%), methane (1.5%)"},
			{"Diameter", "49,244 km"},
			{"Surface gravity", "11.0 m/s²"},
			{"Moons", "14"},
			{"Peak wind speed", "2,100 km/h"},
		},
	},
}
