// Package server exposes positions, orbit geometry and the live animation
// frame stream over HTTP for 3D front-ends.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/state"
)

const (
	shutdownTimeout = 5 * time.Second
	defaultStreamHz = 30
)

// Options configures a Server.
type Options struct {
	Logger      *logging.Logger
	State       *state.Manager
	Registry    *prometheus.Registry
	CORSOrigins []string
	StreamRate  float64 // frames per second per stream client
	Now         func() time.Time
}

// Server is the HTTP/WebSocket front of the animation service.
type Server struct {
	log      *logging.Logger
	state    *state.Manager
	registry *prometheus.Registry
	metrics  *httpMetrics
	now      func() time.Time

	streamRate rate.Limit
	upgrader   websocket.Upgrader
	orbits     map[bodies.ID]scene.OrbitGeometry

	router    *gin.Engine
	closing   chan struct{}
	closeOnce sync.Once
}

type httpMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	streamClients   prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_stream_clients",
			Help: "Connected frame stream clients.",
		}),
	}
	reg.MustRegister(m.requestDuration, m.requestsTotal, m.streamClients)
	return m
}

// New builds a server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.State == nil {
		opts.State = state.NewManager(state.DefaultConfig())
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StreamRate <= 0 {
		opts.StreamRate = defaultStreamHz
	}

	orbits := make(map[bodies.ID]scene.OrbitGeometry, len(bodies.Planets))
	for _, g := range scene.AllOrbits() {
		orbits[g.Body] = g
	}

	s := &Server{
		log:        opts.Logger,
		state:      opts.State,
		registry:   opts.Registry,
		metrics:    newHTTPMetrics(opts.Registry),
		now:        opts.Now,
		streamRate: rate.Limit(opts.StreamRate),
		orbits:     orbits,
		closing:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(opts.CORSOrigins),
		},
	}
	s.router = s.routes(opts.CORSOrigins)
	return s
}

func (s *Server) routes(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(s.log.Writer(logging.LevelDebug)))
	r.Use(gin.RecoveryWithWriter(s.log.Writer(logging.LevelError)))
	r.Use(s.instrument())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/bodies", s.handleBodies)
		api.GET("/bodies/:id", s.handleBody)
		api.GET("/positions", s.handlePositions)
		api.GET("/positions/:id", s.handlePosition)
		api.GET("/orbits", s.handleOrbits)
		api.GET("/frame", s.handleFrame)
		api.GET("/constants", s.handleConstants)
		api.GET("/status", s.handleStatus)
		api.GET("/stream", s.handleStream)
	}
	return r
}

// instrument records request counts and latency per route.
func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.metrics.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Hijacked stream connections are not closed by Shutdown.
	srv.RegisterOnShutdown(s.closeStreams)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) closeStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || contains(origins, origin)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
