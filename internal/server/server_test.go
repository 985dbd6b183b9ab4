package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/litescript/ls-orrery/internal/anim"
	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/state"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *state.Manager) {
	t.Helper()
	mgr := state.NewManager(state.DefaultConfig())
	s := New(Options{
		State:      mgr,
		StreamRate: 1000,
		Now:        func() time.Time { return astro.J2000 },
	})
	return s, mgr
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestStatusCodes(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/bodies", http.StatusOK},
		{"/api/bodies/earth", http.StatusOK},
		{"/api/bodies/Sun", http.StatusOK},
		{"/api/bodies/pluto", http.StatusNotFound},
		{"/api/positions", http.StatusOK},
		{"/api/positions?at=2024-03-20T03:06:00Z", http.StatusOK},
		{"/api/positions?at=tomorrow", http.StatusBadRequest},
		{"/api/positions/mars", http.StatusOK},
		{"/api/positions/pluto", http.StatusNotFound},
		{"/api/positions/mars?at=bad", http.StatusBadRequest},
		{"/api/orbits", http.StatusOK},
		{"/api/orbits?segments=16", http.StatusOK},
		{"/api/orbits?segments=2", http.StatusBadRequest},
		{"/api/orbits?segments=lots", http.StatusBadRequest},
		{"/api/frame", http.StatusServiceUnavailable},
		{"/api/constants", http.StatusOK},
		{"/api/status", http.StatusOK},
		{"/api/status?events=3", http.StatusOK},
		{"/api/status?events=-1", http.StatusBadRequest},
		{"/api/status?events=all", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d (body %s)", tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBodies(t *testing.T) {
	s, _ := newTestServer(t)

	var resp struct {
		Count int `json:"count"`
		Data  []struct {
			ID       string                  `json:"id"`
			Class    string                  `json:"class"`
			Elements *bodies.OrbitalElements `json:"elements"`
		} `json:"data"`
	}
	decode(t, get(t, s, "/api/bodies"), &resp)

	if resp.Count != 9 || len(resp.Data) != 9 {
		t.Fatalf("count = %d, len = %d, want 9", resp.Count, len(resp.Data))
	}
	if resp.Data[0].ID != "sun" || resp.Data[0].Elements != nil {
		t.Errorf("first body = %+v, want sun without elements", resp.Data[0])
	}
	if resp.Data[3].ID != "earth" || resp.Data[3].Elements == nil {
		t.Fatalf("fourth body = %+v, want earth with elements", resp.Data[3])
	}
	if resp.Data[3].Elements.SemiMajorAxisAU != 1.00000261 {
		t.Errorf("earth a = %v", resp.Data[3].Elements.SemiMajorAxisAU)
	}
}

func TestUnknownBodyError(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/bodies/vulcan")

	var resp map[string]string
	decode(t, rec, &resp)
	if !strings.Contains(resp["error"], "unknown body") {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestPositionsMatchEngine(t *testing.T) {
	s, _ := newTestServer(t)

	var resp struct {
		JulianDay float64 `json:"julian_day"`
		DaysJ2000 float64 `json:"days_j2000"`
		Data      []struct {
			Body  string     `json:"body"`
			X     float64    `json:"x"`
			Y     float64    `json:"y"`
			Z     float64    `json:"z"`
			Scene astro.Vec3 `json:"scene"`
		} `json:"data"`
	}
	decode(t, get(t, s, "/api/positions"), &resp)

	if resp.DaysJ2000 != 0 {
		t.Errorf("days since J2000 = %v, want 0 for the test clock", resp.DaysJ2000)
	}
	if math.Abs(resp.JulianDay-astro.JDJ2000) > 1e-6 {
		t.Errorf("julian day = %v, want %v", resp.JulianDay, astro.JDJ2000)
	}
	if len(resp.Data) != 8 {
		t.Fatalf("got %d positions, want 8", len(resp.Data))
	}

	want := orbit.ComputeAllPositions(astro.J2000)
	for _, p := range resp.Data {
		w := want[bodies.ID(p.Body)]
		if p.X != w.X || p.Y != w.Y || p.Z != w.Z {
			t.Errorf("%s = (%v, %v, %v), want (%v, %v, %v)", p.Body, p.X, p.Y, p.Z, w.X, w.Y, w.Z)
		}
		if p.Scene.X != w.X || p.Scene.Y != w.Z || p.Scene.Z != w.Y {
			t.Errorf("%s scene = %+v, want y-up remap", p.Body, p.Scene)
		}
	}
}

func TestOrbits(t *testing.T) {
	s, _ := newTestServer(t)

	var resp struct {
		Segments int `json:"segments"`
		Data     []struct {
			Body string       `json:"body"`
			A    float64      `json:"a"`
			Ring []astro.Vec3 `json:"ring"`
		} `json:"data"`
	}
	decode(t, get(t, s, "/api/orbits?segments=16"), &resp)

	if resp.Segments != 16 || len(resp.Data) != 8 {
		t.Fatalf("segments = %d, orbits = %d", resp.Segments, len(resp.Data))
	}
	for _, o := range resp.Data {
		if len(o.Ring) != 17 {
			t.Errorf("%s ring has %d points, want 17", o.Body, len(o.Ring))
		}
	}
	if resp.Data[2].Body != "earth" || resp.Data[2].A != 24 {
		t.Errorf("earth orbit = %+v", resp.Data[2])
	}
}

func TestFrame(t *testing.T) {
	s, mgr := newTestServer(t)

	mgr.PublishFrame(anim.FrameSet{
		Seq: 7,
		Bodies: map[bodies.ID]anim.Frame{
			bodies.Earth: {OrbitAngleRad: 0},
		},
	})

	rec := get(t, s, "/api/frame")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/frame = %d", rec.Code)
	}

	var resp struct {
		Data struct {
			Seq    uint64 `json:"seq"`
			Bodies map[string]struct {
				Position astro.Vec3 `json:"position"`
			} `json:"bodies"`
		} `json:"data"`
	}
	decode(t, rec, &resp)
	if resp.Data.Seq != 7 {
		t.Errorf("seq = %d, want 7", resp.Data.Seq)
	}
	// Earth's display orbit has radius 24, placed at angle 0.
	if got := resp.Data.Bodies["earth"].Position.X; got != 24 {
		t.Errorf("earth x = %v, want 24", got)
	}
}

func TestConstants(t *testing.T) {
	s, _ := newTestServer(t)

	var resp map[string]interface{}
	decode(t, get(t, s, "/api/constants"), &resp)
	if resp["G"] != 6.6743e-11 {
		t.Errorf("G = %v", resp["G"])
	}
	if resp["AU_m"] != 149597870700.0 {
		t.Errorf("AU_m = %v", resp["AU_m"])
	}
	if resp["kepler_iterations"] != 10.0 {
		t.Errorf("kepler_iterations = %v", resp["kepler_iterations"])
	}
}

func TestMetricsExposeRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	get(t, s, "/api/bodies")

	rec := get(t, s, "/metrics")
	body := rec.Body.String()
	if !strings.Contains(body, `orrery_http_requests_total{code="200",route="/api/bodies"} 1`) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
}

func TestCORS(t *testing.T) {
	s := New(Options{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/api/bodies", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/bodies", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign origin status = %d, want 403", rec.Code)
	}
}

func TestStream(t *testing.T) {
	s, mgr := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		var seq uint64
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				seq++
				mgr.PublishFrame(anim.FrameSet{
					Seq:    seq,
					Bodies: map[bodies.ID]anim.Frame{bodies.Mars: {OrbitAngleRad: 1}},
				})
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Seq    uint64                     `json:"seq"`
		Bodies map[string]json.RawMessage `json:"bodies"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Seq == 0 {
		t.Error("frame without sequence number")
	}
	if _, ok := msg.Bodies["mars"]; !ok {
		t.Errorf("frame missing mars: %v", msg.Bodies)
	}
}

func TestRunShutsDown(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil after cancel", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStatusEventsLimit(t *testing.T) {
	s, mgr := newTestServer(t)
	for i := 0; i < 5; i++ {
		mgr.RecordFailure(uint64(i+1), errors.New("boom"))
	}

	var resp struct {
		FrameIntervalMs int64 `json:"frame_interval_ms"`
		Events          []struct {
			Type string `json:"type"`
			Seq  uint64 `json:"seq"`
		} `json:"events"`
	}
	decode(t, get(t, s, "/api/status?events=2"), &resp)

	if len(resp.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(resp.Events))
	}
	if resp.Events[0].Seq != 4 || resp.Events[1].Seq != 5 {
		t.Errorf("events = %+v, want the two most recent", resp.Events)
	}
	if want := mgr.FrameInterval().Milliseconds(); resp.FrameIntervalMs != want {
		t.Errorf("frame_interval_ms = %d, want %d", resp.FrameIntervalMs, want)
	}

	decode(t, get(t, s, "/api/status?events=0"), &resp)
	if len(resp.Events) != 0 {
		t.Errorf("events=0 returned %d events", len(resp.Events))
	}
}

func TestHealthReportsAnimating(t *testing.T) {
	s, mgr := newTestServer(t)

	var resp struct {
		Animating bool `json:"animating"`
	}
	decode(t, get(t, s, "/healthz"), &resp)
	if resp.Animating {
		t.Error("animating before any frame")
	}

	mgr.PublishFrame(anim.FrameSet{Seq: 1})
	decode(t, get(t, s, "/healthz"), &resp)
	if !resp.Animating {
		t.Error("not animating after a frame")
	}
}
