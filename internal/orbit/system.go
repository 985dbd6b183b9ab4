package orbit

import (
	"sync"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// Body is a solar system body placed in heliocentric ecliptic coordinates.
type Body struct {
	ID       bodies.ID
	Name     string
	Class    bodies.Class
	Pos      astro.Vec3 // AU, heliocentric ecliptic
	Position HeliocentricPosition
}

// DistanceAU returns the heliocentric distance in AU.
func (b Body) DistanceAU() float64 {
	return b.Pos.Norm()
}

// EclipticLatDeg returns the ecliptic latitude in degrees.
func (b Body) EclipticLatDeg() float64 {
	return astro.EclipticLatitude(b.Pos)
}

// EclipticLonDeg returns the ecliptic longitude in degrees.
func (b Body) EclipticLonDeg() float64 {
	return astro.EclipticLongitude(b.Pos)
}

// LightTimeSec returns the one-way light time from the Sun in seconds.
func (b Body) LightTimeSec() float64 {
	return astro.LightTimeFromAU(b.DistanceAU())
}

// SystemSnapshot is the solar system at one instant, Sun first.
type SystemSnapshot struct {
	At     time.Time
	Bodies []Body
}

// GetBody returns a body by id, or nil if not found.
func (s SystemSnapshot) GetBody(id bodies.ID) *Body {
	for i := range s.Bodies {
		if s.Bodies[i].ID == id {
			return &s.Bodies[i]
		}
	}
	return nil
}

// GetPlanets returns all planet bodies.
func (s SystemSnapshot) GetPlanets() []Body {
	var planets []Body
	for _, b := range s.Bodies {
		if b.Class != bodies.ClassStar {
			planets = append(planets, b)
		}
	}
	return planets
}

// Snapshot computes the whole system at t.
func Snapshot(t time.Time) SystemSnapshot {
	sun := bodies.MustLookup(bodies.Sun)
	snap := SystemSnapshot{
		At:     t,
		Bodies: []Body{{ID: bodies.Sun, Name: sun.Name, Class: sun.Class}},
	}

	positions := ComputeAllPositions(t)
	for _, id := range bodies.Planets {
		p := bodies.MustLookup(id)
		pos := positions[id]
		snap.Bodies = append(snap.Bodies, Body{
			ID:       id,
			Name:     p.Name,
			Class:    p.Class,
			Pos:      pos.Vec(),
			Position: pos,
		})
	}
	return snap
}

// DefaultCacheTTL bounds how stale a cached snapshot may get. Planets move
// slowly enough that a minute is invisible at display scale.
const DefaultCacheTTL = time.Minute

// Cache memoizes Snapshot for readers that poll "now" frequently.
type Cache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	snapshot SystemSnapshot
	computed time.Time
}

// NewCache creates a cache. A zero ttl uses DefaultCacheTTL; a nil clock uses
// time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// Get returns the cached snapshot, recomputing it when stale.
func (c *Cache) Get() SystemSnapshot {
	now := c.now()

	c.mu.RLock()
	if !c.computed.IsZero() && now.Sub(c.computed) < c.ttl {
		snap := c.snapshot
		c.mu.RUnlock()
		return snap
	}
	c.mu.RUnlock()

	snap := Snapshot(now)

	c.mu.Lock()
	c.snapshot = snap
	c.computed = now
	c.mu.Unlock()

	return snap
}
