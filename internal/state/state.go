// Package state provides thread-safe state management for the application.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-orrery/internal/anim"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/orbit"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventSeeded       EventType = "SEEDED"
	EventFrameFailed  EventType = "FRAME_FAILED"
	EventSubscribed   EventType = "SUBSCRIBED"
	EventUnsubscribed EventType = "UNSUBSCRIBED"
)

// Event represents a notable change in the animation service.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Seq       uint64    `json:"seq,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Manager holds the latest animation frame and the startup positions, and
// fans frames out to subscribers.
type Manager struct {
	mu sync.RWMutex

	// Current state
	frame       *anim.FrameSet
	positions   map[bodies.ID]orbit.HeliocentricPosition
	positionsAt time.Time
	lastError   error
	lastFailure time.Time
	frames      uint64
	failures    uint64

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Subscribers
	subs       map[int]chan anim.FrameSet
	nextSubID  int
	subBuffer  int
	dropped    uint64
	dropCounts map[int]uint64

	// Configuration
	frameInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents        int
	SubscriberBuffer int
	FrameInterval    time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents:        50, // Last 50 events
		SubscriberBuffer: 8,  // About 130ms of frames at 60 fps
		FrameInterval:    time.Second / 60,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	buf := cfg.SubscriberBuffer
	if buf <= 0 {
		buf = 1
	}
	return &Manager{
		maxEvents:     maxEvents,
		events:        make([]Event, 0, maxEvents),
		subs:          make(map[int]chan anim.FrameSet),
		dropCounts:    make(map[int]uint64),
		subBuffer:     buf,
		frameInterval: cfg.FrameInterval,
	}
}

// SetPositions records the real positions the animation was seeded from.
func (m *Manager) SetPositions(at time.Time, positions map[bodies.ID]orbit.HeliocentricPosition) {
	cp := make(map[bodies.ID]orbit.HeliocentricPosition, len(positions))
	for id, p := range positions {
		cp[id] = p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = cp
	m.positionsAt = at
	m.addEvent(Event{Type: EventSeeded, Timestamp: time.Now(), Detail: at.UTC().Format(time.RFC3339)})
}

// PublishFrame stores fs as the latest frame and offers it to every
// subscriber. Subscribers whose buffer is full miss the frame.
func (m *Manager) PublishFrame(fs anim.FrameSet) {
	fs = copyFrame(fs)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.frame = &fs
	m.frames++
	for id, ch := range m.subs {
		select {
		case ch <- fs:
		default:
			m.dropped++
			m.dropCounts[id]++
		}
	}
}

// RecordFailure notes a failed frame.
func (m *Manager) RecordFailure(seq uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.failures++
	m.lastError = err
	m.lastFailure = now
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	m.addEvent(Event{Type: EventFrameFailed, Timestamp: now, Seq: seq, Detail: detail})
}

// Subscribe registers a frame subscriber. The returned channel is closed by
// Unsubscribe.
func (m *Manager) Subscribe() (int, <-chan anim.FrameSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	ch := make(chan anim.FrameSet, m.subBuffer)
	m.subs[id] = ch
	m.addEvent(Event{Type: EventSubscribed, Timestamp: time.Now(), Seq: uint64(id)})
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.subs[id]
	if !ok {
		return
	}
	delete(m.subs, id)
	delete(m.dropCounts, id)
	close(ch)
	m.addEvent(Event{Type: EventUnsubscribed, Timestamp: time.Now(), Seq: uint64(id)})
}

// Dropped returns how many frames subscriber id has missed.
func (m *Manager) Dropped(id int) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dropCounts[id]
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func copyFrame(fs anim.FrameSet) anim.FrameSet {
	b := make(map[bodies.ID]anim.Frame, len(fs.Bodies))
	for id, f := range fs.Bodies {
		b[id] = f
	}
	fs.Bodies = b
	return fs
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Frame       *anim.FrameSet
	Positions   map[bodies.ID]orbit.HeliocentricPosition
	PositionsAt time.Time
	Frames      uint64
	Failures    uint64
	Dropped     uint64
	LastError   error
	LastFailure time.Time
	Subscribers int
	Events      []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var frame *anim.FrameSet
	if m.frame != nil {
		f := copyFrame(*m.frame)
		frame = &f
	}

	positions := make(map[bodies.ID]orbit.HeliocentricPosition, len(m.positions))
	for id, p := range m.positions {
		positions[id] = p
	}

	return Snapshot{
		Frame:       frame,
		Positions:   positions,
		PositionsAt: m.positionsAt,
		Frames:      m.frames,
		Failures:    m.failures,
		Dropped:     m.dropped,
		LastError:   m.lastError,
		LastFailure: m.lastFailure,
		Subscribers: len(m.subs),
		Events:      m.getEventsOrdered(),
	}
}

// LatestFrame returns a copy of the most recent frame.
func (m *Manager) LatestFrame() (anim.FrameSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.frame == nil {
		return anim.FrameSet{}, false
	}
	return copyFrame(*m.frame), true
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasData returns true if at least one frame has been published.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame != nil
}

// FrameInterval returns the configured frame interval.
func (m *Manager) FrameInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frameInterval
}
