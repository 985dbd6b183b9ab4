package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/anim"
	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/scene"
)

// Source selects where the orrery takes body positions from.
type Source int

const (
	// SourceAnimated draws the animation driver's frames on scaled orbits.
	SourceAnimated Source = iota
	// SourceEphemeris draws real Kepler positions for the current instant.
	SourceEphemeris
)

func (s Source) String() string {
	if s == SourceEphemeris {
		return "ephemeris"
	}
	return "animated"
}

// LabelMode controls how body labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only the focused body
	LabelAll                      // Every body
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelFocused:
		return "focus"
	default:
		return "all"
	}
}

// Discrete zoom levels for clean stepping
var zoomLevels = []float64{0.25, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0}

const defaultZoom = 3 // Index of 1.0 in zoomLevels

// OrreryModel renders a top-down view of the solar system.
type OrreryModel struct {
	width  int
	height int

	frame    anim.FrameSet
	hasFrame bool
	system   orbit.SystemSnapshot
	orbits   map[bodies.ID]scene.OrbitGeometry

	// View state
	focusIdx   int     // Index into bodies.Planets (-1 = Sun)
	zoomLevel  int     // Index into zoomLevels
	panX       float64 // Pan offset as a fraction of the view extent
	panY       float64
	scaleMode  astro.ScaleMode
	labelMode  LabelMode
	source     Source
	userPanned bool // True if user has manually panned (disables auto-center on zoom)
	showOrbits bool
}

// NewOrreryModel creates a new orrery view model.
func NewOrreryModel() OrreryModel {
	orbits := make(map[bodies.ID]scene.OrbitGeometry, len(bodies.Planets))
	for _, g := range scene.AllOrbits() {
		orbits[g.Body] = g
	}
	return OrreryModel{
		orbits:     orbits,
		focusIdx:   -1, // Start focused on Sun
		zoomLevel:  defaultZoom,
		scaleMode:  astro.ScaleLogR,
		labelMode:  LabelFocused,
		showOrbits: true,
	}
}

// scale returns the current zoom scale.
func (m OrreryModel) scale() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return 1.0
	}
	return zoomLevels[m.zoomLevel]
}

// SetSize updates the viewport size.
func (m OrreryModel) SetSize(width, height int) OrreryModel {
	m.width = width
	m.height = height
	return m
}

// UpdateFrame stores the latest animation frame.
func (m OrreryModel) UpdateFrame(fs anim.FrameSet) OrreryModel {
	m.frame = fs
	m.hasFrame = true
	if !m.userPanned && m.source == SourceAnimated {
		m.centerOnFocused()
	}
	return m
}

// UpdateSystem stores the latest real positions.
func (m OrreryModel) UpdateSystem(s orbit.SystemSnapshot) OrreryModel {
	m.system = s
	if !m.userPanned && m.source == SourceEphemeris {
		m.centerOnFocused()
	}
	return m
}

// Update handles input messages.
func (m OrreryModel) Update(msg tea.Msg) (OrreryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Focus navigation
		case "j", "[":
			m.focusPrev()
		case "k", "]":
			m.focusNext()

		// Viewport panning
		case "up":
			m.panY -= 0.05 / m.scale()
			m.userPanned = true
		case "down":
			m.panY += 0.05 / m.scale()
			m.userPanned = true
		case "left":
			m.panX -= 0.05 / m.scale()
			m.userPanned = true
		case "right":
			m.panX += 0.05 / m.scale()
			m.userPanned = true
		case "c":
			m.panX, m.panY = 0, 0 // Center on Sun
			m.userPanned = false

		case "f":
			m.centerOnFocused()
			m.userPanned = false

		// Zoom (discrete levels)
		case "+", "=":
			if m.zoomLevel < len(zoomLevels)-1 {
				m.zoomLevel++
				if !m.userPanned {
					m.centerOnFocused()
				}
			}
		case "-":
			if m.zoomLevel > 0 {
				m.zoomLevel--
				if !m.userPanned {
					m.centerOnFocused()
				}
			}
		case "0":
			m.zoomLevel = defaultZoom
			if !m.userPanned {
				m.centerOnFocused()
			}

		// Radial scaling of the ephemeris source
		case "z":
			m.scaleMode = (m.scaleMode + 1) % 3
			if !m.userPanned {
				m.centerOnFocused()
			}

		case "e":
			m.source = (m.source + 1) % 2
			if !m.userPanned {
				m.centerOnFocused()
			}

		case "l":
			m.labelMode = (m.labelMode + 1) % 3

		case "g":
			m.showOrbits = !m.showOrbits

		// Reset everything
		case "r":
			m.panX, m.panY = 0, 0
			m.zoomLevel = defaultZoom
			m.userPanned = false
		}
	}
	return m, nil
}

func (m *OrreryModel) focusNext() {
	m.focusIdx++
	if m.focusIdx >= len(bodies.Planets) {
		m.focusIdx = -1 // Wrap to Sun
	}
	m.centerOnFocused()
	m.userPanned = false
}

func (m *OrreryModel) focusPrev() {
	m.focusIdx--
	if m.focusIdx < -1 {
		m.focusIdx = len(bodies.Planets) - 1
	}
	m.centerOnFocused()
	m.userPanned = false
}

// Focused returns the focused body id.
func (m OrreryModel) Focused() bodies.ID {
	if m.focusIdx < 0 || m.focusIdx >= len(bodies.Planets) {
		return bodies.Sun
	}
	return bodies.Planets[m.focusIdx]
}

// SetFocus focuses a body by id. Unknown ids focus the Sun.
func (m OrreryModel) SetFocus(id bodies.ID) OrreryModel {
	m.focusIdx = -1
	for i, p := range bodies.Planets {
		if p == id {
			m.focusIdx = i
			break
		}
	}
	m.userPanned = false
	m.centerOnFocused()
	return m
}

// place returns a body's top-down position in view units: x right, y up.
func (m OrreryModel) place(id bodies.ID) (float64, float64, bool) {
	switch m.source {
	case SourceEphemeris:
		b := m.system.GetBody(id)
		if b == nil {
			return 0, 0, false
		}
		proj := astro.ProjectEclipticTopDown(b.Pos, astro.ProjectionConfig{Scale: 1, Mode: m.scaleMode})
		return proj.X, proj.Y, true
	default:
		if !m.hasFrame {
			return 0, 0, false
		}
		f, ok := m.frame.Bodies[id]
		g, gok := m.orbits[id]
		if !ok || !gok {
			return 0, 0, false
		}
		// Renderer Z is the ecliptic y axis.
		p := g.Place(f.OrbitAngleRad)
		return p.X, p.Z, true
	}
}

// extent is the view-unit radius that fits the outermost orbit.
func (m OrreryModel) extent() float64 {
	if m.source == SourceEphemeris {
		outer := bodies.MustLookup(bodies.Neptune).DistanceAU
		proj := astro.ProjectEclipticTopDown(astro.Vec3{X: outer}, astro.ProjectionConfig{Scale: 1, Mode: m.scaleMode})
		return proj.X * 1.05
	}
	var r float64
	for _, g := range m.orbits {
		r = math.Max(r, g.A)
	}
	if r == 0 {
		r = scene.MinOrbitRadius
	}
	return r * 1.05
}

// centerOnFocused pans the view to center on the currently focused body.
func (m *OrreryModel) centerOnFocused() {
	id := m.Focused()
	if id == bodies.Sun {
		m.panX, m.panY = 0, 0
		return
	}
	x, y, ok := m.place(id)
	if !ok {
		return
	}
	ext := m.extent()
	m.panX = -x / ext
	m.panY = -y / ext
}

// View renders the orrery.
func (m OrreryModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for orrery view"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas().String(), m.renderHUD())
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	color     string
	isFocused bool
}

// buildCanvas renders the bodies and orbits to a canvas.
func (m OrreryModel) buildCanvas() *canvas {
	// Reserve space for HUD (2 lines)
	canvasH := m.height - 3
	if canvasH < 5 {
		canvasH = 5
	}
	cv := newCanvas(m.width, canvasH)

	screenCenterX := m.width / 2
	screenCenterY := canvasH / 2

	// Terminal cells are about twice as tall as wide.
	maxDisplayR := float64(min(screenCenterX, screenCenterY*2)) * 0.9
	ext := m.extent()
	displayScale := maxDisplayR / ext * m.scale()

	originX := screenCenterX + int(math.Round(m.panX*ext*displayScale))
	originY := screenCenterY - int(math.Round(m.panY*ext*displayScale*0.5))

	toScreen := func(x, y float64) (int, int) {
		return originX + int(math.Round(x*displayScale)), originY - int(math.Round(y*displayScale*0.5))
	}

	if m.showOrbits {
		m.drawOrbits(cv, toScreen, originX, originY, displayScale)
	}

	var positions []bodyPos
	for i, id := range bodies.Planets {
		x, y, ok := m.place(id)
		if !ok {
			continue
		}
		sx, sy := toScreen(x, y)
		if !cv.inside(sx, sy) {
			continue
		}
		phys := bodies.MustLookup(id)
		focused := i == m.focusIdx
		color := phys.Color
		if focused {
			color = highlight(color, 0.45)
		}
		cv.set(sx, sy, cell{r: bodyGlyph(phys, focused), kind: cellBody, color: color, bold: focused})
		positions = append(positions, bodyPos{x: sx, y: sy, name: phys.Name, color: color, isFocused: focused})
	}

	// Sun last so it's always visible
	if cv.inside(originX, originY) {
		sun := bodies.MustLookup(bodies.Sun)
		cv.set(originX, originY, cell{r: '☉', kind: cellBody, color: sun.Color, bold: true})
		positions = append(positions, bodyPos{
			x: originX, y: originY, name: sun.Name, color: sun.Color, isFocused: m.focusIdx == -1,
		})
	}

	m.renderLabels(cv, positions)
	return cv
}

func (m OrreryModel) drawOrbits(cv *canvas, toScreen func(x, y float64) (int, int), ox, oy int, displayScale float64) {
	if m.source == SourceEphemeris {
		// Reference circles for key distances
		for _, au := range []float64{1, 5, 10, 20, 30} {
			proj := astro.ProjectEclipticTopDown(astro.Vec3{X: au}, astro.ProjectionConfig{Scale: 1, Mode: m.scaleMode})
			r := proj.X * displayScale
			cv.ellipse(ox, oy, r, r*0.5)
		}
		return
	}

	for _, id := range bodies.Planets {
		g, ok := m.orbits[id]
		if !ok {
			continue
		}
		segments := int(2 * math.Pi * g.A * displayScale)
		if segments < 16 {
			segments = 16
		}
		if segments > 720 {
			segments = 720
		}
		for _, p := range g.Ring(segments) {
			cv.dot(toScreen(p.X, p.Z))
		}
	}
}

// renderLabels draws body labels based on label mode.
func (m OrreryModel) renderLabels(cv *canvas, positions []bodyPos) {
	if m.labelMode == LabelNone {
		return
	}
	for _, pos := range positions {
		if m.labelMode == LabelFocused && !pos.isFocused {
			continue
		}
		text := pos.name
		if pos.isFocused {
			text = "◄ " + pos.name
		}
		cv.text(pos.x+2, pos.y, text, pos.color, pos.isFocused)
	}
}

func bodyGlyph(p bodies.Physical, focused bool) rune {
	switch {
	case p.HasRings:
		if focused {
			return '◉'
		}
		return '◎'
	case p.Class == bodies.ClassGiant:
		if focused {
			return '◉'
		}
		return '○'
	default:
		if focused {
			return '●'
		}
		return '•'
	}
}

func (m OrreryModel) renderHUD() string {
	var b strings.Builder

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	id := m.Focused()
	phys := bodies.MustLookup(id)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(highlight(phys.Color, 0.3))).Bold(true)

	if id == bodies.Sun {
		b.WriteString(headerStyle.Render("☉ Sun"))
		b.WriteString("  ")
		if m.hasFrame {
			b.WriteString(labelStyle.Render("Spin: "))
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", wrapDeg(m.frame.Sun.RotationAngleRad))))
		} else {
			b.WriteString(dimStyle.Render("(center of solar system)"))
		}
	} else {
		b.WriteString(headerStyle.Render("◆ " + phys.Name))
		switch m.source {
		case SourceEphemeris:
			if body := m.system.GetBody(id); body != nil {
				b.WriteString("  ")
				b.WriteString(labelStyle.Render("Distance: "))
				b.WriteString(valueStyle.Render(fmt.Sprintf("%.3f AU", body.DistanceAU())))
				b.WriteString("  ")
				b.WriteString(labelStyle.Render("Light: "))
				b.WriteString(valueStyle.Render(astro.FormatLightTime(body.LightTimeSec())))
				b.WriteString("  ")
				b.WriteString(labelStyle.Render("Ecl Lon: "))
				b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", body.EclipticLonDeg())))
			}
		default:
			if f, ok := m.frame.Bodies[id]; ok {
				b.WriteString("  ")
				b.WriteString(labelStyle.Render("Orbit: "))
				b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", wrapDeg(f.OrbitAngleRad))))
				b.WriteString("  ")
				b.WriteString(labelStyle.Render("Spin: "))
				b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", wrapDeg(f.RotationAngleRad))))
				if phys.Retrograde() {
					b.WriteString(dimStyle.Render(" retrograde"))
				}
				if f.TiltRad != 0 {
					b.WriteString("  ")
					b.WriteString(labelStyle.Render("Tilt: "))
					b.WriteString(valueStyle.Render(fmt.Sprintf("%.2f°", astro.Degrees(f.TiltRad))))
				}
			}
		}
	}
	b.WriteString("\n")

	b.WriteString(dimStyle.Render("Source:"))
	b.WriteString(valueStyle.Render(m.source.String()))
	if m.source == SourceEphemeris {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("Mode:"))
		b.WriteString(valueStyle.Render(m.scaleMode.String()))
	}
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Zoom:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2gx", m.scale())))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Labels:"))
	b.WriteString(valueStyle.Render(m.labelMode.String()))
	if m.hasFrame && m.source == SourceAnimated {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("Frame:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("#%d t+%.1fs", m.frame.Seq, m.frame.ElapsedMillis/1000)))
	}

	return b.String()
}

// wrapDeg converts an angle in radians to degrees in [0, 360).
func wrapDeg(rad float64) float64 {
	return astro.NormalizeAngleDeg(astro.Degrees(rad))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
