// Package anim evolves planetary orbit and spin angles frame by frame,
// starting from the real heliocentric positions computed at startup.
package anim

import (
	"fmt"
	"math"
	"sort"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/orbit"
)

// DefaultSpeedFactor scales the artificial animation rate.
const DefaultSpeedFactor = 3.0

// rotationScale converts 1/period into a per-frame spin increment.
const rotationScale = 0.05

// Config configures a Driver.
type Config struct {
	SpeedFactor float64
}

// DefaultConfig returns the standard animation configuration.
func DefaultConfig() Config {
	return Config{SpeedFactor: DefaultSpeedFactor}
}

// BodyState is the mutable animation state of one body.
type BodyState struct {
	ID       bodies.ID
	Elements bodies.OrbitalElements
	Physical bodies.Physical

	// Real orbit angle at seeding time, degrees.
	InitialOrbitAngleDeg float64
	// atan2(z, x) of the seeding position, radians.
	InitialAngle float64

	OrbitAngle    float64
	RotationAngle float64
	RotationSpeed float64
	TiltRad       float64
}

// Frame is the per-body output of one Advance call.
type Frame struct {
	OrbitAngleRad    float64 `json:"orbit_angle_rad"`
	RotationAngleRad float64 `json:"rotation_angle_rad"`
	TiltRad          float64 `json:"tilt_rad"`
}

func (s *BodyState) frame() Frame {
	return Frame{
		OrbitAngleRad:    s.OrbitAngle,
		RotationAngleRad: s.RotationAngle,
		TiltRad:          s.TiltRad,
	}
}

// Driver owns the animation state of the Sun and every planet. It is not
// safe for concurrent use; one goroutine calls Advance.
type Driver struct {
	cfg    Config
	states map[bodies.ID]*BodyState
	sun    *BodyState
	frames uint64
}

// NewDriver seeds a driver from real positions. Planets missing from
// positions are not animated.
func NewDriver(positions map[bodies.ID]orbit.HeliocentricPosition, cfg Config) (*Driver, error) {
	if cfg.SpeedFactor == 0 {
		cfg.SpeedFactor = DefaultSpeedFactor
	}
	d := &Driver{cfg: cfg}

	sunPhys := bodies.MustLookup(bodies.Sun)
	d.sun = &BodyState{
		ID:            bodies.Sun,
		Physical:      sunPhys,
		RotationSpeed: math.Abs(RotationSpeed(sunPhys.RotationPeriodDays, cfg.SpeedFactor)),
	}

	if err := d.Reset(positions); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset reseeds the initial angles from new positions and clears
// accumulated spin. The Sun keeps its rotation.
func (d *Driver) Reset(positions map[bodies.ID]orbit.HeliocentricPosition) error {
	states := make(map[bodies.ID]*BodyState, len(positions))
	for id, pos := range positions {
		if !id.IsPlanet() {
			return fmt.Errorf("%w: %q", bodies.ErrUnknownBody, string(id))
		}
		el, err := bodies.Elements(id)
		if err != nil {
			return err
		}
		phys := bodies.MustLookup(id)

		s := &BodyState{
			ID:                   id,
			Elements:             el,
			Physical:             phys,
			InitialOrbitAngleDeg: pos.OrbitAngleDeg,
			InitialAngle:         math.Atan2(pos.Z, pos.X),
			RotationSpeed:        RotationSpeed(phys.RotationPeriodDays, d.cfg.SpeedFactor),
		}
		s.OrbitAngle = s.InitialAngle
		if phys.FixedTilt() {
			s.TiltRad = astro.Radians(phys.AxialTiltDeg)
		}
		states[id] = s
	}
	d.states = states
	d.frames = 0
	return nil
}

// Advance moves every body to elapsedMillis since the animation started
// and adds one spin increment.
func (d *Driver) Advance(elapsedMillis float64) map[bodies.ID]Frame {
	out := make(map[bodies.ID]Frame, len(d.states))
	for id, s := range d.states {
		s.OrbitAngle = OrbitAngle(s.InitialAngle, elapsedMillis, s.Physical.OrbitalPeriodDays, d.cfg.SpeedFactor)
		s.RotationAngle += s.RotationSpeed
		if s.Physical.FixedTilt() {
			s.TiltRad = astro.Radians(s.Physical.AxialTiltDeg)
		}
		out[id] = s.frame()
	}
	d.sun.RotationAngle += d.sun.RotationSpeed
	d.frames++
	return out
}

// Sun returns the Sun's current frame.
func (d *Driver) Sun() Frame {
	return d.sun.frame()
}

// State returns a copy of one body's state.
func (d *Driver) State(id bodies.ID) (BodyState, bool) {
	if id == bodies.Sun {
		return *d.sun, true
	}
	s, ok := d.states[id]
	if !ok {
		return BodyState{}, false
	}
	return *s, true
}

// IDs returns the animated planets in table order.
func (d *Driver) IDs() []bodies.ID {
	ids := make([]bodies.ID, 0, len(d.states))
	for id := range d.states {
		ids = append(ids, id)
	}
	order := make(map[bodies.ID]int, len(bodies.Planets))
	for i, id := range bodies.Planets {
		order[id] = i
	}
	sort.Slice(ids, func(i, j int) bool { return order[ids[i]] < order[ids[j]] })
	return ids
}

// Frames returns the number of Advance calls since the last Reset.
func (d *Driver) Frames() uint64 {
	return d.frames
}

// SpeedFactor returns the configured speed factor.
func (d *Driver) SpeedFactor() float64 {
	return d.cfg.SpeedFactor
}

// OrbitAngle returns the animated orbit angle in radians. A zero period
// yields a constant angle.
func OrbitAngle(initial, elapsedMillis, periodDays, speed float64) float64 {
	var rate float64
	if periodDays != 0 {
		rate = 1 / periodDays
	}
	return math.Mod(initial+elapsedMillis*0.001*speed*rate*2*math.Pi, 2*math.Pi)
}

// RotationSpeed returns the per-frame spin increment in radians. Negative
// periods spin backwards; a zero period does not spin.
func RotationSpeed(periodDays, speed float64) float64 {
	if periodDays == 0 {
		return 0
	}
	v := (1 / math.Abs(periodDays)) * rotationScale * speed
	if periodDays < 0 {
		return -v
	}
	return v
}
