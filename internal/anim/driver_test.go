package anim

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/orbit"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := NewDriver(orbit.ComputeAllPositions(astro.J2000), DefaultConfig())
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d
}

// angleDelta returns b-a wrapped into (-π, π].
func angleDelta(a, b float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func TestNewDriverSeedsInitialAngles(t *testing.T) {
	positions := orbit.ComputeAllPositions(astro.J2000)
	d, err := NewDriver(positions, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	if got := len(d.IDs()); got != len(bodies.Planets) {
		t.Fatalf("animated %d bodies, want %d", got, len(bodies.Planets))
	}
	for i, id := range d.IDs() {
		if id != bodies.Planets[i] {
			t.Errorf("IDs()[%d] = %s, want %s", i, id, bodies.Planets[i])
		}
	}

	for id, pos := range positions {
		s, ok := d.State(id)
		if !ok {
			t.Fatalf("no state for %s", id)
		}
		want := math.Atan2(pos.Z, pos.X)
		if s.InitialAngle != want {
			t.Errorf("%s initial angle = %v, want %v", id, s.InitialAngle, want)
		}
		if s.InitialOrbitAngleDeg != pos.OrbitAngleDeg {
			t.Errorf("%s initial orbit angle = %v, want %v", id, s.InitialOrbitAngleDeg, pos.OrbitAngleDeg)
		}
	}

	frames := d.Advance(0)
	for id, f := range frames {
		s, _ := d.State(id)
		if f.OrbitAngleRad != s.InitialAngle {
			t.Errorf("%s angle at t=0 = %v, want %v", id, f.OrbitAngleRad, s.InitialAngle)
		}
	}
}

func TestNewDriverDefaultsSpeed(t *testing.T) {
	d, err := NewDriver(nil, Config{})
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if d.SpeedFactor() != DefaultSpeedFactor {
		t.Errorf("SpeedFactor = %v, want %v", d.SpeedFactor(), DefaultSpeedFactor)
	}
	if len(d.Advance(100)) != 0 {
		t.Error("driver without positions should animate nothing")
	}
}

func TestNewDriverSkipsMissingPlanets(t *testing.T) {
	pos, err := orbit.PositionOf(bodies.Mars, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDriver(map[bodies.ID]orbit.HeliocentricPosition{bodies.Mars: pos}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	frames := d.Advance(16)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if _, ok := frames[bodies.Mars]; !ok {
		t.Error("missing mars frame")
	}
	if _, ok := d.State(bodies.Earth); ok {
		t.Error("earth should not be animated")
	}
}

func TestResetRejectsNonPlanets(t *testing.T) {
	d := newTestDriver(t)
	for _, id := range []bodies.ID{bodies.Sun, "pluto"} {
		err := d.Reset(map[bodies.ID]orbit.HeliocentricPosition{id: {}})
		if !errors.Is(err, bodies.ErrUnknownBody) {
			t.Errorf("Reset(%s) error = %v, want ErrUnknownBody", id, err)
		}
	}
}

func TestResetClearsSpin(t *testing.T) {
	d := newTestDriver(t)
	for i := 0; i < 10; i++ {
		d.Advance(float64(i) * 16)
	}
	if err := d.Reset(orbit.ComputeAllPositions(astro.J2000.Add(24 * time.Hour))); err != nil {
		t.Fatal(err)
	}
	if d.Frames() != 0 {
		t.Errorf("Frames after Reset = %d, want 0", d.Frames())
	}
	s, _ := d.State(bodies.Earth)
	if s.RotationAngle != 0 {
		t.Errorf("earth rotation after Reset = %v, want 0", s.RotationAngle)
	}
}

func TestRetrogradeRotation(t *testing.T) {
	d := newTestDriver(t)
	frames := d.Advance(16)

	tests := []struct {
		id       bodies.ID
		negative bool
	}{
		{bodies.Mercury, false},
		{bodies.Venus, true},
		{bodies.Earth, false},
		{bodies.Jupiter, false},
		{bodies.Uranus, true},
		{bodies.Neptune, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			rot := frames[tt.id].RotationAngleRad
			if rot == 0 {
				t.Fatal("rotation did not advance")
			}
			if (rot < 0) != tt.negative {
				t.Errorf("rotation = %v, negative want %v", rot, tt.negative)
			}
		})
	}
}

func TestRotationSpeed(t *testing.T) {
	tests := []struct {
		name   string
		period float64
		speed  float64
		want   float64
	}{
		{"earth", 1, 3, 0.15},
		{"venus", -243, 3, -(1.0 / 243) * 0.05 * 3},
		{"uranus", -0.72, 3, -(1 / 0.72) * 0.05 * 3},
		{"zero period", 0, 3, 0},
		{"zero speed", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RotationSpeed(tt.period, tt.speed)
			if math.Abs(got-tt.want) > 1e-15 {
				t.Errorf("RotationSpeed(%v, %v) = %v, want %v", tt.period, tt.speed, got, tt.want)
			}
		})
	}
}

func TestRotationAccumulatesPerFrame(t *testing.T) {
	d := newTestDriver(t)
	want := RotationSpeed(1, DefaultSpeedFactor)
	var frames map[bodies.ID]Frame
	for i := 1; i <= 5; i++ {
		frames = d.Advance(float64(i))
	}
	if got := frames[bodies.Earth].RotationAngleRad; math.Abs(got-5*want) > 1e-12 {
		t.Errorf("earth rotation after 5 frames = %v, want %v", got, 5*want)
	}
}

func TestSunRotatesForward(t *testing.T) {
	d := newTestDriver(t)
	prev := d.Sun().RotationAngleRad
	for i := 0; i < 3; i++ {
		d.Advance(float64(i) * 16)
		cur := d.Sun().RotationAngleRad
		if cur <= prev {
			t.Fatalf("sun rotation went from %v to %v", prev, cur)
		}
		prev = cur
	}
	if d.Sun().OrbitAngleRad != 0 {
		t.Error("sun should not orbit")
	}
}

func TestUranusTiltReapplied(t *testing.T) {
	d := newTestDriver(t)
	want := astro.Radians(97.77)
	for i := 0; i < 3; i++ {
		frames := d.Advance(float64(i) * 16)
		if got := frames[bodies.Uranus].TiltRad; got != want {
			t.Fatalf("uranus tilt = %v, want %v", got, want)
		}
		if got := frames[bodies.Earth].TiltRad; got != 0 {
			t.Fatalf("earth tilt = %v, want 0", got)
		}
	}
}

func TestAdvanceContinuousAndMonotonic(t *testing.T) {
	d := newTestDriver(t)
	prev := d.Advance(0)
	for step := 1; step <= 500; step++ {
		cur := d.Advance(float64(step) * 16)
		for id, f := range cur {
			delta := angleDelta(prev[id].OrbitAngleRad, f.OrbitAngleRad)
			if delta <= 0 {
				t.Fatalf("%s moved backwards at step %d: %v", id, step, delta)
			}
			if delta > 0.01 {
				t.Fatalf("%s jumped %v rad at step %d", id, delta, step)
			}
			if math.Abs(f.OrbitAngleRad) >= 2*math.Pi {
				t.Fatalf("%s angle %v outside (-2π, 2π)", id, f.OrbitAngleRad)
			}
		}
		prev = cur
	}
}

func TestOrbitAngle(t *testing.T) {
	// One display year of Earth at speed 3 takes 365.25/3 seconds.
	full := 365.25 / 3 * 1000
	got := OrbitAngle(0.5, full, 365.25, 3)
	if math.Abs(angleDelta(0.5, got)) > 1e-9 {
		t.Errorf("angle after one period = %v, want 0.5", got)
	}

	quarter := OrbitAngle(0, full/4, 365.25, 3)
	if math.Abs(quarter-math.Pi/2) > 1e-9 {
		t.Errorf("angle after a quarter period = %v, want π/2", quarter)
	}

	if got := OrbitAngle(1, 1e9, 0, 3); got != 1 {
		t.Errorf("zero period angle = %v, want 1", got)
	}

	// math.Mod keeps the sign of the dividend.
	if got := OrbitAngle(-1, 0, 365.25, 3); got != -1 {
		t.Errorf("negative initial angle = %v, want -1", got)
	}
}
