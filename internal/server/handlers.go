package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/litescript/ls-orrery/internal/anim"
	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/state"
)

const (
	maxRingSegments     = 4096
	defaultStatusEvents = 10
)

// bodyResponse is a body's physical data with its orbital elements.
type bodyResponse struct {
	bodies.Physical
	Class    string                  `json:"class"`
	Elements *bodies.OrbitalElements `json:"elements,omitempty"`
	Orbit    *scene.OrbitGeometry    `json:"orbit,omitempty"`
}

// positionResponse is a heliocentric position plus its renderer placement.
type positionResponse struct {
	orbit.HeliocentricPosition
	Body  bodies.ID  `json:"body"`
	Scene astro.Vec3 `json:"scene"` // y-up frame, AU
}

type orbitResponse struct {
	scene.OrbitGeometry
	Ring []astro.Vec3 `json:"ring"`
}

type bodyFrame struct {
	anim.Frame
	Position astro.Vec3 `json:"position"` // display units, y-up
}

type frameResponse struct {
	Seq           uint64                  `json:"seq"`
	At            time.Time               `json:"at"`
	ElapsedMillis float64                 `json:"elapsed_ms"`
	Sun           anim.Frame              `json:"sun"`
	Bodies        map[bodies.ID]bodyFrame `json:"bodies"`
}

func errorJSON(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.state.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"animating": s.state.HasData(),
		"frames":    snap.Frames,
		"failures":  snap.Failures,
	})
}

func (s *Server) bodyResponse(id bodies.ID) (bodyResponse, error) {
	p, err := bodies.Lookup(id)
	if err != nil {
		return bodyResponse{}, err
	}
	resp := bodyResponse{Physical: p, Class: p.Class.String()}
	if id.IsPlanet() {
		el, err := bodies.Elements(id)
		if err != nil {
			return bodyResponse{}, err
		}
		resp.Elements = &el
		if g, ok := s.orbits[id]; ok {
			resp.Orbit = &g
		}
	}
	return resp, nil
}

func (s *Server) handleBodies(c *gin.Context) {
	list := make([]bodyResponse, 0, len(bodies.All))
	for _, id := range bodies.All {
		b, err := s.bodyResponse(id)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err)
			return
		}
		list = append(list, b)
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  list,
		"count": len(list),
	})
}

func (s *Server) handleBody(c *gin.Context) {
	id, err := bodies.Parse(c.Param("id"))
	if err != nil {
		errorJSON(c, statusFor(err), err)
		return
	}
	b, err := s.bodyResponse(id)
	if err != nil {
		errorJSON(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": b})
}

// queryTime reads the optional "at" parameter.
func (s *Server) queryTime(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("at"))
	if raw == "" {
		return s.now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("at must be an RFC 3339 time")
	}
	return t.UTC(), nil
}

func newPositionResponse(id bodies.ID, p orbit.HeliocentricPosition) positionResponse {
	return positionResponse{
		HeliocentricPosition: p,
		Body:                 id,
		Scene:                scene.ToRenderer(p.Vec()),
	}
}

func (s *Server) handlePositions(c *gin.Context) {
	at, err := s.queryTime(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	all := orbit.ComputeAllPositions(at)
	list := make([]positionResponse, 0, len(all))
	for _, id := range bodies.Planets {
		if p, ok := all[id]; ok {
			list = append(list, newPositionResponse(id, p))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"at":         at,
		"julian_day": astro.JulianDay(at),
		"days_j2000": astro.DaysSinceJ2000(at),
		"data":       list,
		"count":      len(list),
	})
}

func (s *Server) handlePosition(c *gin.Context) {
	at, err := s.queryTime(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	id := bodies.ID(strings.ToLower(c.Param("id")))
	p, err := orbit.PositionOf(id, at)
	if err != nil {
		errorJSON(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"at":         at,
		"julian_day": astro.JulianDay(at),
		"data":       newPositionResponse(id, p),
	})
}

func (s *Server) handleOrbits(c *gin.Context) {
	segments := scene.DefaultRingSegments
	if raw := c.Query("segments"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 3 || n > maxRingSegments {
			errorJSON(c, http.StatusBadRequest, errors.New("segments must be an integer between 3 and 4096"))
			return
		}
		segments = n
	}

	list := make([]orbitResponse, 0, len(bodies.Planets))
	for _, id := range bodies.Planets {
		g, ok := s.orbits[id]
		if !ok {
			continue
		}
		list = append(list, orbitResponse{OrbitGeometry: g, Ring: g.Ring(segments)})
	}
	c.JSON(http.StatusOK, gin.H{
		"segments": segments,
		"data":     list,
		"count":    len(list),
	})
}

// placeFrame attaches renderer positions to a frame.
func (s *Server) placeFrame(fs anim.FrameSet) frameResponse {
	out := frameResponse{
		Seq:           fs.Seq,
		At:            fs.At,
		ElapsedMillis: fs.ElapsedMillis,
		Sun:           fs.Sun,
		Bodies:        make(map[bodies.ID]bodyFrame, len(fs.Bodies)),
	}
	for id, f := range fs.Bodies {
		bf := bodyFrame{Frame: f}
		if g, ok := s.orbits[id]; ok {
			bf.Position = g.Place(f.OrbitAngleRad)
		}
		out.Bodies[id] = bf
	}
	return out
}

func (s *Server) handleFrame(c *gin.Context) {
	fs, ok := s.state.LatestFrame()
	if !ok {
		errorJSON(c, http.StatusServiceUnavailable, errors.New("no animation frame yet"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.placeFrame(fs)})
}

func (s *Server) handleConstants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"G":                 astro.G,
		"AU_m":              astro.AUMeters,
		"AU_km":             astro.AU,
		"J2000":             astro.J2000,
		"JD_J2000":          astro.JDJ2000,
		"kepler_iterations": astro.KeplerIterations,
		"min_orbit_radius":  scene.MinOrbitRadius,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	n := defaultStatusEvents
	if raw := c.Query("events"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			errorJSON(c, http.StatusBadRequest, errors.New("events must be a non-negative integer"))
			return
		}
		n = v
	}

	snap := s.state.Snapshot()
	events := s.state.RecentEvents(n)
	if events == nil {
		events = []state.Event{}
	}
	resp := gin.H{
		"frames":            snap.Frames,
		"failures":          snap.Failures,
		"dropped":           snap.Dropped,
		"subscribers":       snap.Subscribers,
		"positions_at":      snap.PositionsAt,
		"frame_interval_ms": s.state.FrameInterval().Milliseconds(),
		"events":            events,
	}
	if snap.LastError != nil {
		resp["last_error"] = snap.LastError.Error()
		resp["last_failure"] = snap.LastFailure
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	if errors.Is(err, bodies.ErrUnknownBody) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
