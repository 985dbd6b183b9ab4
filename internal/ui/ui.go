// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/anim"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewOrrery ViewMode = iota
	ViewBodies
)

const viewCount = 2

const (
	defaultFrameInterval = time.Second / 30
	systemRefresh        = 500 * time.Millisecond
)

// Msg types for Bubble Tea
type (
	// FrameMsg triggers one animation frame.
	FrameMsg time.Time

	// TickMsg triggers a refresh of the real positions.
	TickMsg time.Time
)

// Options configures the root model.
type Options struct {
	Loop          *anim.Loop
	Cache         *orbit.Cache
	Logger        *logging.Logger
	FrameInterval time.Duration
	SpeedFactor   float64
	Now           func() time.Time // instant used when reseeding, default time.Now
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	loop  *anim.Loop
	cache *orbit.Cache
	log   *logging.Logger
	now   func() time.Time

	// UI state
	viewMode ViewMode
	width    int
	height   int
	ready    bool
	paused   bool
	animTick int

	// Frame clock
	frameInterval time.Duration
	speedFactor   float64
	elapsed       time.Duration
	lastFrame     time.Time
	frames        uint64
	failures      uint64
	lastErr       error

	// Sub-models
	orrery     OrreryModel
	bodiesView BodiesModel

	system orbit.SystemSnapshot
}

// New creates a new root UI model.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrameInterval
	}
	if opts.Cache == nil {
		opts.Cache = orbit.NewCache(orbit.DefaultCacheTTL, nil)
	}
	if opts.SpeedFactor == 0 {
		opts.SpeedFactor = anim.DefaultSpeedFactor
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := Model{
		loop:          opts.Loop,
		cache:         opts.Cache,
		log:           opts.Logger,
		now:           opts.Now,
		viewMode:      ViewOrrery,
		frameInterval: opts.FrameInterval,
		speedFactor:   opts.SpeedFactor,
		orrery:        NewOrreryModel(),
		bodiesView:    NewBodiesModel(),
	}
	m.system = m.cache.Get()
	m.orrery = m.orrery.UpdateSystem(m.system)
	m.bodiesView = m.bodiesView.UpdateSystem(m.system)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(m.frameInterval),
		tickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1", "o":
			m.viewMode = ViewOrrery
		case "2", "b":
			if m.viewMode != ViewBodies {
				m.bodiesView = m.bodiesView.Select(m.orrery.Focused())
			}
			m.viewMode = ViewBodies

		case "tab":
			// Cycle through views
			m.viewMode = (m.viewMode + 1) % viewCount
			if m.viewMode == ViewBodies {
				m.bodiesView = m.bodiesView.Select(m.orrery.Focused())
			}

		case " ", "p":
			m.paused = !m.paused

		case "n":
			m.reseed()

		default:
			// Pass to active view
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Title takes 4 lines, footer 2
		contentHeight := msg.Height - 6
		m.orrery = m.orrery.SetSize(msg.Width, contentHeight)
		m.bodiesView = m.bodiesView.SetSize(msg.Width, contentHeight)

	case FrameMsg:
		cmds = append(cmds, frameCmd(m.frameInterval))
		m.animTick++
		m.handleFrame(time.Time(msg))

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.system = m.cache.Get()
		m.orrery = m.orrery.UpdateSystem(m.system)
		m.bodiesView = m.bodiesView.UpdateSystem(m.system)

	case OpenInOrreryMsg:
		m.orrery = m.orrery.SetFocus(msg.Body)
		m.viewMode = ViewOrrery

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

// handleFrame advances the animation clock and runs one frame. A failed
// frame is logged and counted; the next tick is already scheduled.
func (m *Model) handleFrame(now time.Time) {
	if !m.lastFrame.IsZero() && !m.paused {
		if d := now.Sub(m.lastFrame); d > 0 {
			m.elapsed += d
		}
	}
	m.lastFrame = now
	if m.paused || m.loop == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.failures++
			m.lastErr = fmt.Errorf("frame render panicked: %v", r)
			m.log.Error("%v", m.lastErr)
		}
	}()

	fs, err := m.loop.Step(float64(m.elapsed) / float64(time.Millisecond))
	if err != nil {
		m.failures++
		m.lastErr = err
		return
	}
	m.frames++
	m.orrery = m.orrery.UpdateFrame(fs)
	m.bodiesView = m.bodiesView.UpdateFrame(fs)
}

// reseed restarts the animation from the real positions at now.
func (m *Model) reseed() {
	if m.loop == nil {
		return
	}
	at := m.now()
	if err := m.loop.Reset(at, orbit.ComputeAllPositions(at)); err != nil {
		m.failures++
		m.lastErr = err
		return
	}
	m.elapsed = 0
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewOrrery:
		m.orrery, cmd = m.orrery.Update(msg)
	case ViewBodies:
		m.bodiesView, cmd = m.bodiesView.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewOrrery:
		content = m.orrery.View()
	case ViewBodies:
		content = m.bodiesView.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString("\n  ")

	title := []rune("L S · O R R E R Y")
	colors := gradient(len(title), "#3B82F6", "#8B5CF6", "#D946EF", "#EC4899")
	for i, r := range title {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Bold(true)
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("   Keplerian solar system · v%s", version.Version)))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Orrery", "[2] Bodies"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[(m.animTick/3)%len(spinnerFrames)]

	var status string
	switch {
	case m.paused:
		status = accentStyle.Render("❚❚") + dimStyle.Render(fmt.Sprintf(" paused at t+%.1fs", m.elapsed.Seconds()))
	default:
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" t+%.1fs  %.0fx", m.elapsed.Seconds(), m.speedFactor))
	}
	if m.failures > 0 && m.lastErr != nil {
		status += "  " + errorStyle.Render(fmt.Sprintf("%d failed frames: %v", m.failures, m.lastErr))
	}

	var help string
	switch m.viewMode {
	case ViewBodies:
		help = dimStyle.Render("↑↓/jk: select | enter: show in orrery | space: pause")
	default:
		help = dimStyle.Render("j/k: focus | +/-: zoom | arrows: pan | f: find | e: source | z: scale | l: labels | g: orbits | n: now | space: pause")
	}

	return "  " + status + "  " + dimStyle.Render("|") + "  " + help
}

// Frames returns the number of successful frames.
func (m Model) Frames() uint64 {
	return m.frames
}

// Failures returns the number of failed frames.
func (m Model) Failures() uint64 {
	return m.failures
}

func frameCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func tickCmd() tea.Cmd {
	return tea.Tick(systemRefresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
