package anim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/orbit"
)

// ErrNonFiniteElapsed is returned by Step for NaN or infinite elapsed times.
var ErrNonFiniteElapsed = errors.New("non-finite elapsed time")

// FrameSet is one finished animation frame for all bodies.
type FrameSet struct {
	Seq           uint64              `json:"seq"`
	At            time.Time           `json:"at"`
	ElapsedMillis float64             `json:"elapsed_ms"`
	Sun           Frame               `json:"sun"`
	Bodies        map[bodies.ID]Frame `json:"bodies"`
}

// Metrics holds the frame loop's Prometheus collectors.
type Metrics struct {
	Frames   prometheus.Counter
	Failures prometheus.Counter
	Duration prometheus.Histogram
}

// NewMetrics creates the frame collectors and registers them with reg when
// it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_frames_total",
			Help: "Animation frames completed.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_frame_failures_total",
			Help: "Animation frames that failed and were skipped.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_frame_duration_seconds",
			Help:    "Time spent computing one animation frame.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Frames, m.Failures, m.Duration)
	}
	return m
}

// Sink receives finished frames.
type Sink func(FrameSet)

// FailureHook is told about every failed frame.
type FailureHook func(seq uint64, err error)

// ResetHook is told about positions once the driver has been reseeded from
// them.
type ResetHook func(at time.Time, positions map[bodies.ID]orbit.HeliocentricPosition)

type seed struct {
	at        time.Time
	positions map[bodies.ID]orbit.HeliocentricPosition
}

// Loop schedules driver passes and isolates failures so one bad frame never
// stops the animation.
type Loop struct {
	driver    *Driver
	log       *logging.Logger
	metrics   *Metrics
	sink      Sink
	onFailure FailureHook
	onReset   ResetHook
	now       func() time.Time
	seq       uint64
	failures  uint64
	reseed    chan seed
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSink publishes each finished frame.
func WithSink(s Sink) LoopOption {
	return func(l *Loop) { l.sink = s }
}

// WithMetrics records frame counts and timings.
func WithMetrics(m *Metrics) LoopOption {
	return func(l *Loop) { l.metrics = m }
}

// WithFailureHook reports failed frames.
func WithFailureHook(h FailureHook) LoopOption {
	return func(l *Loop) { l.onFailure = h }
}

// WithResetHook reports successful reseeds.
func WithResetHook(h ResetHook) LoopOption {
	return func(l *Loop) { l.onReset = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// NewLoop creates a frame loop around driver.
func NewLoop(driver *Driver, log *logging.Logger, opts ...LoopOption) *Loop {
	if log == nil {
		log = logging.Discard()
	}
	l := &Loop{
		driver: driver,
		log:    log,
		now:    time.Now,
		reseed: make(chan seed, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Step runs one frame at elapsedMillis. Panics in the driver or the sink are
// recovered and returned as errors.
func (l *Loop) Step(elapsedMillis float64) (fs FrameSet, err error) {
	l.seq++
	seq := l.seq
	start := l.now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame %d panicked: %v", seq, r)
		}
		if err != nil {
			l.failures++
			l.log.Error("frame %d failed: %v", seq, err)
			if l.metrics != nil {
				l.metrics.Failures.Inc()
			}
			if l.onFailure != nil {
				l.onFailure(seq, err)
			}
			return
		}
		if l.metrics != nil {
			l.metrics.Frames.Inc()
			l.metrics.Duration.Observe(l.now().Sub(start).Seconds())
		}
	}()

	if math.IsNaN(elapsedMillis) || math.IsInf(elapsedMillis, 0) {
		return FrameSet{}, fmt.Errorf("frame %d: %w", seq, ErrNonFiniteElapsed)
	}

	fs = FrameSet{
		Seq:           seq,
		At:            start,
		ElapsedMillis: elapsedMillis,
		Bodies:        l.driver.Advance(elapsedMillis),
		Sun:           l.driver.Sun(),
	}
	if l.sink != nil {
		l.sink(fs)
	}
	return fs, nil
}

// Run steps the driver every interval until ctx is done. Elapsed time is
// measured from the call to Run.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %v", interval)
	}
	started := l.now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.log.Info("frame loop started at %v per frame", interval)
	for {
		select {
		case <-ctx.Done():
			l.log.Info("frame loop stopped after %d frames (%d failed)", l.seq, l.failures)
			return ctx.Err()
		case sd := <-l.reseed:
			if err := l.Reset(sd.at, sd.positions); err != nil {
				l.log.Error("reseed: %v", err)
				continue
			}
			started = l.now()
		case <-ticker.C:
			elapsed := float64(l.now().Sub(started)) / float64(time.Millisecond)
			_, _ = l.Step(elapsed)
		}
	}
}

// Reset reseeds the driver from positions computed at at. It must be called
// from the goroutine that steps the loop; elapsed time restarts at zero.
func (l *Loop) Reset(at time.Time, positions map[bodies.ID]orbit.HeliocentricPosition) error {
	if err := l.driver.Reset(positions); err != nil {
		return err
	}
	l.log.Info("reseeded %d bodies at %s", len(positions), at.UTC().Format(time.RFC3339))
	if l.onReset != nil {
		l.onReset(at, positions)
	}
	return nil
}

// Reseed hands positions to a running Run loop, which resets the driver
// between frames. A pending reseed is replaced by the newer one.
func (l *Loop) Reseed(at time.Time, positions map[bodies.ID]orbit.HeliocentricPosition) {
	sd := seed{at: at, positions: positions}
	for {
		select {
		case l.reseed <- sd:
			return
		default:
		}
		select {
		case <-l.reseed:
		default:
		}
	}
}

// Failures returns the number of failed frames.
func (l *Loop) Failures() uint64 {
	return l.failures
}

// Seq returns the sequence number of the last attempted frame.
func (l *Loop) Seq() uint64 {
	return l.seq
}
