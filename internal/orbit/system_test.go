package orbit

import (
	"errors"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

func TestSnapshot(t *testing.T) {
	at := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	snap := Snapshot(at)

	if !snap.At.Equal(at) {
		t.Errorf("At = %v, want %v", snap.At, at)
	}
	if len(snap.Bodies) != len(bodies.All) {
		t.Fatalf("got %d bodies, want %d", len(snap.Bodies), len(bodies.All))
	}
	if snap.Bodies[0].ID != bodies.Sun || snap.Bodies[0].Pos != (astro.Vec3{}) {
		t.Errorf("first body should be the Sun at the origin, got %+v", snap.Bodies[0])
	}
	if got := len(snap.GetPlanets()); got != 8 {
		t.Errorf("GetPlanets() returned %d bodies", got)
	}

	earth := snap.GetBody(bodies.Earth)
	if earth == nil {
		t.Fatal("Earth missing from snapshot")
	}
	if !scalar.EqualWithinAbs(earth.DistanceAU(), earth.Position.R, 1e-9) {
		t.Errorf("DistanceAU = %v, want %v", earth.DistanceAU(), earth.Position.R)
	}
	if lt := earth.LightTimeSec(); lt < 480 || lt > 520 {
		t.Errorf("Earth light time = %vs, want ~499s", lt)
	}
	if lon := earth.EclipticLonDeg(); lon < 0 || lon >= 360 {
		t.Errorf("ecliptic longitude %v out of range", lon)
	}
	if lat := earth.EclipticLatDeg(); lat < -0.01 || lat > 0.01 {
		t.Errorf("Earth ecliptic latitude = %v, want ~0", lat)
	}

	if snap.GetBody("pluto") != nil {
		t.Error("GetBody(pluto) should be nil")
	}
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache(time.Minute, func() time.Time { return now })

	first := cache.Get()
	if !first.At.Equal(now) {
		t.Fatalf("first snapshot at %v, want %v", first.At, now)
	}

	now = now.Add(30 * time.Second)
	if got := cache.Get(); !got.At.Equal(first.At) {
		t.Errorf("snapshot recomputed before TTL: %v", got.At)
	}

	now = now.Add(31 * time.Second)
	if got := cache.Get(); !got.At.Equal(now) {
		t.Errorf("snapshot not recomputed after TTL: %v", got.At)
	}
}

func TestNewCacheDefaults(t *testing.T) {
	c := NewCache(0, nil)
	if c.ttl != DefaultCacheTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultCacheTTL)
	}
	if c.now == nil {
		t.Error("nil clock should default to time.Now")
	}
}

func TestGravitationalForce(t *testing.T) {
	f, err := SunPull(bodies.Earth)
	if err != nil {
		t.Fatal(err)
	}
	// Sun-Earth attraction is ~3.54e22 N
	if f < 3.50e22 || f > 3.58e22 {
		t.Errorf("SunPull(earth) = %e N, want ~3.54e22", f)
	}

	if got := GravitationalForce(1, 1, 0); got != 0 {
		t.Errorf("zero distance force = %v, want 0", got)
	}
	if got := GravitationalForce(1, 1, 1); got != astro.G {
		t.Errorf("unit force = %v, want G", got)
	}

	if _, err := SunPull(bodies.Sun); !errors.Is(err, bodies.ErrUnknownBody) {
		t.Errorf("SunPull(sun) error = %v, want ErrUnknownBody", err)
	}
}
