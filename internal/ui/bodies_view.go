package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/anim"
	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/orbit"
)

// OpenInOrreryMsg asks the root model to show a body in the orrery.
type OpenInOrreryMsg struct {
	Body bodies.ID
}

// BodiesModel lists every body next to a detail panel for the selected one.
type BodiesModel struct {
	width    int
	height   int
	cursor   int // Index into bodies.All
	frame    anim.FrameSet
	hasFrame bool
	system   orbit.SystemSnapshot
}

// NewBodiesModel creates a new bodies view model.
func NewBodiesModel() BodiesModel {
	return BodiesModel{}
}

// SetSize updates the viewport size.
func (m BodiesModel) SetSize(width, height int) BodiesModel {
	m.width = width
	m.height = height
	return m
}

// UpdateFrame stores the latest animation frame.
func (m BodiesModel) UpdateFrame(fs anim.FrameSet) BodiesModel {
	m.frame = fs
	m.hasFrame = true
	return m
}

// UpdateSystem stores the latest real positions.
func (m BodiesModel) UpdateSystem(s orbit.SystemSnapshot) BodiesModel {
	m.system = s
	return m
}

// Selected returns the selected body.
func (m BodiesModel) Selected() bodies.ID {
	if m.cursor < 0 || m.cursor >= len(bodies.All) {
		return bodies.Sun
	}
	return bodies.All[m.cursor]
}

// Select moves the cursor to id.
func (m BodiesModel) Select(id bodies.ID) BodiesModel {
	for i, b := range bodies.All {
		if b == id {
			m.cursor = i
			break
		}
	}
	return m
}

// Update handles input messages.
func (m BodiesModel) Update(msg tea.Msg) (BodiesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "j":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "k":
			if m.cursor < len(bodies.All)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(bodies.All) - 1
		case "enter":
			id := m.Selected()
			return m, func() tea.Msg { return OpenInOrreryMsg{Body: id} }
		}
	}
	return m, nil
}

// View renders the list and the detail panel side by side.
func (m BodiesModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for bodies view"
	}

	list := m.renderList()
	detailW := m.width - lipgloss.Width(list) - 4
	if detailW < 30 {
		detailW = 30
	}
	detail := renderDetail(m.Selected(), m.system, m.frame, m.hasFrame, detailW)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", detail)
}

func (m BodiesModel) renderList() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	var b strings.Builder
	b.WriteString(headerStyle.Render("  BODY       DIST AU"))
	b.WriteString("\n")
	for i, id := range bodies.All {
		p := bodies.MustLookup(id)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color))
		marker := "  "
		if i == m.cursor {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(highlight(p.Color, 0.45))).Bold(true)
			marker = "▶ "
		}
		dist := "-"
		if body := m.system.GetBody(id); body != nil && id != bodies.Sun {
			dist = fmt.Sprintf("%.3f", body.DistanceAU())
		}
		b.WriteString(marker)
		b.WriteString(style.Render(fmt.Sprintf("%-10s", p.Name)))
		b.WriteString(dimStyle.Render(fmt.Sprintf(" %7s", dist)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderDetail renders the inspection panel for one body.
func renderDetail(id bodies.ID, sys orbit.SystemSnapshot, fs anim.FrameSet, hasFrame bool, width int) string {
	p, err := bodies.Lookup(id)
	if err != nil {
		return err.Error()
	}

	accent := highlight(p.Color, 0.3)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accent)).
		Padding(0, 1).
		Width(width)
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(18)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(width - 2)

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(p.Name)))
	b.WriteString("  ")
	b.WriteString(valueStyle.Render(p.Class.String()))
	b.WriteString("\n")
	b.WriteString(descStyle.Render(p.Description))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Facts"))
	b.WriteString("\n")
	for _, f := range p.Facts {
		b.WriteString(row(f.Label, f.Value))
	}
	b.WriteString(row("Radius", fmt.Sprintf("%.0f km", p.RadiusKm)))
	b.WriteString(row("Mass", fmt.Sprintf("%.3e kg", p.MassKg)))
	b.WriteString(row("Rotation period", formatRotation(p)))
	if p.AxialTiltDeg != 0 {
		b.WriteString(row("Axial tilt", fmt.Sprintf("%.2f°", p.AxialTiltDeg)))
	}

	if id.IsPlanet() {
		if el, err := bodies.Elements(id); err == nil {
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render("Orbit (J2000)"))
			b.WriteString("\n")
			b.WriteString(row("Semi-major axis", fmt.Sprintf("%.6f AU", el.SemiMajorAxisAU)))
			b.WriteString(row("Eccentricity", fmt.Sprintf("%.6f", el.Eccentricity)))
			b.WriteString(row("Inclination", fmt.Sprintf("%.4f°", el.InclinationDeg)))
			b.WriteString(row("Perihelion", fmt.Sprintf("%.3f AU", el.PerihelionAU())))
			b.WriteString(row("Aphelion", fmt.Sprintf("%.3f AU", el.AphelionAU())))
			b.WriteString(row("Period", fmt.Sprintf("%.2f d", el.PeriodDays)))
		}
		if force, err := orbit.SunPull(id); err == nil {
			b.WriteString(row("Sun pull", fmt.Sprintf("%.3e N", force)))
		}
	}

	if body := sys.GetBody(id); body != nil && id != bodies.Sun {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Now"))
		b.WriteString("\n")
		b.WriteString(row("Distance", fmt.Sprintf("%.4f AU", body.DistanceAU())))
		b.WriteString(row("", fmt.Sprintf("%.1f million km", astro.AUToKm(body.DistanceAU())/1e6)))
		b.WriteString(row("Light time", astro.FormatLightTime(body.LightTimeSec())))
		b.WriteString(row("Ecliptic lon/lat", fmt.Sprintf("%.2f° / %.2f°", body.EclipticLonDeg(), body.EclipticLatDeg())))
		b.WriteString(row("True anomaly", fmt.Sprintf("%.2f°", body.Position.TrueAnomalyDeg)))
		b.WriteString(row("Julian day", fmt.Sprintf("%.4f", astro.JulianDay(sys.At))))
	}

	if hasFrame {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Animation"))
		b.WriteString("\n")
		if id == bodies.Sun {
			b.WriteString(row("Spin", fmt.Sprintf("%.1f°", wrapDeg(fs.Sun.RotationAngleRad))))
		} else if f, ok := fs.Bodies[id]; ok {
			b.WriteString(row("Orbit angle", fmt.Sprintf("%.1f°", wrapDeg(f.OrbitAngleRad))))
			b.WriteString(row("Spin", fmt.Sprintf("%.1f°", wrapDeg(f.RotationAngleRad))))
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func formatRotation(p bodies.Physical) string {
	days := p.RotationPeriodDays
	if days == 0 {
		return "-"
	}
	s := fmt.Sprintf("%.2f d", days)
	if days < 0 {
		s = fmt.Sprintf("%.2f d (retrograde)", -days)
	}
	return s
}
