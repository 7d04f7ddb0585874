package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/schedule"
)

var (
	shapeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	startStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)

	circleGlyph = singleCell('●', 'o')
	squareGlyph = singleCell('■', '#')
	startGlyph  = "+"
	cursorGlyph = singleCell('◆', '*')
)

// singleCell returns r when it occupies one terminal cell, otherwise fallback.
func singleCell(r, fallback rune) string {
	if runewidth.RuneWidth(r) == 1 {
		return string(r)
	}
	return string(fallback)
}

type cell struct {
	glyph string
	style *lipgloss.Style
}

// canvas is a grid of single-width terminal cells.
type canvas struct {
	width  int
	height int
	cells  [][]cell
}

func newCanvas(width, height int) *canvas {
	cells := make([][]cell, height)
	for y := range cells {
		cells[y] = make([]cell, width)
		for x := range cells[y] {
			cells[y][x] = cell{glyph: " "}
		}
	}
	return &canvas{width: width, height: height, cells: cells}
}

func (c *canvas) inside(col, row int) bool {
	return col >= 0 && col < c.width && row >= 0 && row < c.height
}

func (c *canvas) set(col, row int, glyph string, style *lipgloss.Style) {
	if !c.inside(col, row) {
		return
	}
	c.cells[row][col] = cell{glyph: glyph, style: style}
}

func (c *canvas) text(row, col int, s string, style *lipgloss.Style) {
	for _, r := range s {
		if runewidth.RuneWidth(r) != 1 {
			continue
		}
		c.set(col, row, string(r), style)
		col++
	}
}

// String renders rows, styling runs of cells that share a style.
func (c *canvas) String() string {
	lines := make([]string, c.height)
	for y, row := range c.cells {
		var line, run strings.Builder
		var current *lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if current != nil {
				line.WriteString(current.Render(run.String()))
			} else {
				line.WriteString(run.String())
			}
			run.Reset()
		}
		for _, cl := range row {
			if cl.style != current {
				flush()
				current = cl.style
			}
			run.WriteString(cl.glyph)
		}
		flush()
		lines[y] = line.String()
	}
	return strings.Join(lines, "\n")
}

// drawShape fills every cell whose centre lies inside the shape, or at least
// the cell containing the shape centre.
func (m *Model) drawShape(c *canvas, center model.Point, size float64, kind schedule.Kind, style *lipgloss.Style) {
	glyph := circleGlyph
	if kind == schedule.KindSquare {
		glyph = squareGlyph
	}
	half := size / 2
	minCol, minRow := m.toCell(model.Point{X: center.X - half, Y: center.Y - half})
	maxCol, maxRow := m.toCell(model.Point{X: center.X + half, Y: center.Y + half})
	drawn := false
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			p := m.toCanvas(col, row)
			in := false
			switch kind {
			case schedule.KindCircle:
				in = p.Dist(center) <= half
			case schedule.KindSquare:
				in = p.X > center.X-half && p.X < center.X+half && p.Y > center.Y-half && p.Y < center.Y+half
			}
			if in && c.inside(col, row) {
				c.set(col, row, glyph, style)
				drawn = true
			}
		}
	}
	if !drawn {
		col, row := m.toCell(center)
		c.set(col, row, glyph, style)
	}
}
