package astro

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestDaysSinceJ2000(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want float64
	}{
		{"J2000 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 0},
		{"one day later", time.Date(2000, 1, 2, 12, 0, 0, 0, time.UTC), 1},
		{"half day earlier", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), -0.5},
		{"J1900 century", time.Date(1900, 1, 1, 12, 0, 0, 0, time.UTC), -36524},
		{"J2100 century", time.Date(2100, 1, 1, 12, 0, 0, 0, time.UTC), 36525},
		{"non-UTC zone", time.Date(2000, 1, 1, 20, 0, 0, 0, time.FixedZone("UTC+8", 8*3600)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysSinceJ2000(tt.time); got != tt.want {
				t.Errorf("DaysSinceJ2000() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysSinceJ2000ParsedEpoch(t *testing.T) {
	ts, err := time.Parse(time.RFC3339, "2000-01-01T12:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if got := DaysSinceJ2000(ts); got != 0.0 {
		t.Errorf("DaysSinceJ2000(J2000) = %v, want exactly 0", got)
	}
}

func TestJulianDay(t *testing.T) {
	if got := JulianDay(J2000); !scalar.EqualWithinAbs(got, JDJ2000, 1e-6) {
		t.Errorf("JulianDay(J2000) = %v, want %v", got, JDJ2000)
	}

	ts := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	if got := JulianDay(ts) - JDJ2000; !scalar.EqualWithinAbs(got, DaysSinceJ2000(ts), 1e-6) {
		t.Errorf("JD offset %v disagrees with DaysSinceJ2000 %v", got, DaysSinceJ2000(ts))
	}
}

func TestNormalizeAngleDegRange(t *testing.T) {
	inputs := []float64{0, 1, 359.999, 360, 361, 720, -1, -360, -361, -1e-15, 1e-15, 12345.678, -98765.4321}
	for _, in := range inputs {
		got := NormalizeAngleDeg(in)
		if got < 0 || got >= 360 {
			t.Errorf("NormalizeAngleDeg(%v) = %v, out of [0, 360)", in, got)
		}
	}
}

func TestNormalizeAngleDegValues(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{-720, 0},
		{252.25032350 - 77.45779628, 174.79252722},
	}
	for _, tt := range tests {
		if got := NormalizeAngleDeg(tt.in); !scalar.EqualWithinAbs(got, tt.want, 1e-9) {
			t.Errorf("NormalizeAngleDeg(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAngleDegPeriodic(t *testing.T) {
	for _, x := range []float64{0.5, 17.25, 123.456, 270, 359.5} {
		base := NormalizeAngleDeg(x)
		for k := -5; k <= 5; k++ {
			got := NormalizeAngleDeg(x + 360*float64(k))
			diff := math.Abs(got - base)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > 1e-9 {
				t.Errorf("NormalizeAngleDeg(%v + 360*%d) = %v, want %v", x, k, got, base)
			}
		}
	}
}

func TestRadiansDegrees(t *testing.T) {
	if got := Radians(180); got != math.Pi {
		t.Errorf("Radians(180) = %v", got)
	}
	if got := Degrees(math.Pi / 2); !scalar.EqualWithinAbs(got, 90, 1e-12) {
		t.Errorf("Degrees(pi/2) = %v", got)
	}
}
