package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// J2000 is the standard reference epoch, 2000-01-01 12:00:00 UTC.
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// JDJ2000 is the Julian Day of the J2000 epoch.
const JDJ2000 = 2451545.0

const msPerDay = 24 * 60 * 60 * 1000

// DaysSinceJ2000 returns the signed, fractional number of days between t and
// the J2000 epoch. Resolution is one millisecond; the difference is taken on
// Unix milliseconds so that dates centuries away do not overflow a Duration.
func DaysSinceJ2000(t time.Time) float64 {
	return float64(t.UnixMilli()-J2000.UnixMilli()) / msPerDay
}

// JulianDay returns the Julian Day for t.
func JulianDay(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// NormalizeAngleDeg reduces any angle to the half-open range [0, 360).
func NormalizeAngleDeg(angle float64) float64 {
	a := angle - 360*math.Floor(angle/360)
	// Tiny negative inputs round up to exactly 360.
	if a >= 360 {
		return 0
	}
	return a
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
