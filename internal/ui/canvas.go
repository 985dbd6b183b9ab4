package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// cellKind decides how a canvas cell is styled.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellRing
	cellBody
	cellLabel
)

type cell struct {
	r     rune
	kind  cellKind
	color string // hex, for bodies and focused labels
	bold  bool
}

// canvas is a character grid with per-cell colour.
type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	cells := make([][]cell, h)
	for y := range cells {
		cells[y] = make([]cell, w)
		for x := range cells[y] {
			cells[y][x] = cell{r: ' '}
		}
	}
	return &canvas{w: w, h: h, cells: cells}
}

func (c *canvas) inside(x, y int) bool {
	return x >= 0 && x < c.w && y >= 0 && y < c.h
}

func (c *canvas) at(x, y int) cell {
	return c.cells[y][x]
}

func (c *canvas) set(x, y int, v cell) {
	if c.inside(x, y) {
		c.cells[y][x] = v
	}
}

// dot marks an empty cell as part of an orbit ring.
func (c *canvas) dot(x, y int) {
	if c.inside(x, y) && c.cells[y][x].kind == cellEmpty {
		c.cells[y][x] = cell{r: '·', kind: cellRing}
	}
}

// text writes s starting at x, only over empty or ring cells.
func (c *canvas) text(x, y int, s string, color string, bold bool) {
	if y < 0 || y >= c.h {
		return
	}
	for i, r := range []rune(s) {
		px := x + i
		if px < 0 {
			continue
		}
		if px >= c.w {
			break
		}
		k := c.cells[y][px].kind
		if k == cellEmpty || k == cellRing {
			c.cells[y][px] = cell{r: r, kind: cellLabel, color: color, bold: bold}
		}
	}
}

// ellipse draws a dotted ellipse of radii rx, ry around (cx, cy).
func (c *canvas) ellipse(cx, cy int, rx, ry float64) {
	if rx < 1 {
		return
	}
	steps := int(2 * math.Pi * rx)
	if steps < 8 {
		steps = 8
	}
	if steps > 360 {
		steps = 360
	}
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		c.dot(cx+int(math.Round(rx*math.Cos(theta))), cy-int(math.Round(ry*math.Sin(theta))))
	}
}

func (c *canvas) String() string {
	ringStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	var b strings.Builder
	for y, row := range c.cells {
		for _, v := range row {
			switch v.kind {
			case cellEmpty:
				b.WriteRune(v.r)
			case cellRing:
				b.WriteString(ringStyle.Render(string(v.r)))
			default:
				style := labelStyle
				if v.color != "" {
					style = lipgloss.NewStyle().Foreground(lipgloss.Color(v.color))
				}
				if v.bold {
					style = style.Bold(true)
				}
				b.WriteString(style.Render(string(v.r)))
			}
		}
		if y < len(c.cells)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// highlight lightens a hex colour toward white for focused bodies.
// Invalid input is returned unchanged.
func highlight(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return c.BlendLab(white, amount).Clamped().Hex()
}

// gradient returns n colours blended in HCL space across stops.
func gradient(n int, stops ...string) []string {
	if n <= 0 || len(stops) == 0 {
		return nil
	}
	cols := make([]colorful.Color, 0, len(stops))
	for _, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			continue
		}
		cols = append(cols, c)
	}
	out := make([]string, n)
	if len(cols) == 0 {
		return out
	}
	for i := range out {
		if len(cols) == 1 || n == 1 {
			out[i] = cols[0].Hex()
			continue
		}
		pos := float64(i) / float64(n-1) * float64(len(cols)-1)
		seg := int(pos)
		if seg >= len(cols)-1 {
			seg = len(cols) - 2
		}
		out[i] = cols[seg].BlendHcl(cols[seg+1], pos-float64(seg)).Clamped().Hex()
	}
	return out
}
