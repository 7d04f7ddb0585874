// Package tui provides the Bubble Tea pointing interface.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/trial"
)

const (
	explanationText = "Get ready to move your mouse\nand click the red shape!\n\n\nLeft click when you are ready to start!"
	finishedText    = "The experiment is finished!\nThank you for participating\n\n\nClick anywhere in the window to\ncontinue with the next participant."
	taskHint        = "Click on the red shape!"
)

var (
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Align(lipgloss.Center)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model hosts a trial controller in the terminal. The terminal cannot move the
// real pointer, so warps are applied to a virtual cursor offset from it. The
// offset shrinks while the pointer moves against it and is re-anchored when the
// cursor meets a canvas edge, so every part of the canvas stays reachable.
type Model struct {
	ctrl   *trial.Controller
	cfg    model.Config
	logger *zap.Logger

	width  int
	height int

	pointer   model.Point
	offset    model.Point
	hasCursor bool

	progress progress.Model
	err      error
}

// NewModel constructs the experiment host.
func NewModel(ctrl *trial.Controller, cfg model.Config, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		ctrl:     ctrl,
		cfg:      cfg,
		logger:   logger,
		progress: progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
	}
}

// Err returns the error that ended the program, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/2)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		default:
			return m, nil
		}
	case tea.MouseMsg:
		return m.handleMouse(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.onCanvas(msg.X, msg.Y) {
		return m, nil
	}
	m.moveTo(m.toCanvas(msg.X, msg.Y))
	switch msg.Action {
	case tea.MouseActionMotion:
		res := m.ctrl.PointerMove(m.round(m.cursor()))
		if res.TimerStarted {
			m.logger.Debug("trial timer started")
		}
		if res.Warp != nil {
			m.warp(*res.Warp)
		}
		m.hasCursor = true
		return m, nil
	case tea.MouseActionPress:
		button, ok := buttonFor(msg.Button)
		if !ok {
			return m, nil
		}
		x, y := m.round(m.cursor())
		res, err := m.ctrl.PointerPress(x, y, button)
		if err != nil {
			m.logger.Error("trial failed", zap.Error(err))
			m.err = err
			return m, tea.Quit
		}
		if res.Warp != nil {
			m.warp(*res.Warp)
		}
		if m.ctrl.Phase() != trial.PhaseExperiment {
			m.offset = model.Point{}
		}
		return m, nil
	default:
		return m, nil
	}
}

// cursor is the virtual pointer position, clamped to the canvas.
func (m *Model) cursor() model.Point {
	return m.clamp(m.pointer.Add(m.offset))
}

func (m *Model) clamp(p model.Point) model.Point {
	p.X = math.Max(0, math.Min(p.X, float64(m.cfg.ScreenWidth-1)))
	p.Y = math.Max(0, math.Min(p.Y, float64(m.cfg.ScreenHeight-1)))
	return p
}

// moveTo tracks the real pointer. Motion against the offset consumes it, and a
// clamped cursor takes the clamp as its new anchor.
func (m *Model) moveTo(p model.Point) {
	delta := p.Sub(m.pointer)
	m.pointer = p
	m.offset.X = consume(m.offset.X, delta.X)
	m.offset.Y = consume(m.offset.Y, delta.Y)
	m.offset = m.cursor().Sub(m.pointer)
}

// consume moves offset toward zero by the part of delta that points against it.
func consume(offset, delta float64) float64 {
	if offset*delta >= 0 {
		return offset
	}
	step := math.Min(math.Abs(delta), math.Abs(offset))
	if offset > 0 {
		return offset - step
	}
	return offset + step
}

func (m *Model) warp(to model.Point) {
	m.offset = m.clamp(to).Sub(m.pointer)
	m.hasCursor = true
}

func (m *Model) round(p model.Point) (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

func buttonFor(b tea.MouseButton) (trial.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return trial.ButtonPrimary, true
	case tea.MouseButtonRight:
		return trial.ButtonSecondary, true
	case tea.MouseButtonMiddle:
		return trial.ButtonMiddle, true
	default:
		return 0, false
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	bodyHeight := m.canvasRows()
	var body string
	switch m.ctrl.Phase() {
	case trial.PhaseExplanation:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, messageStyle.Render(explanationText))
	case trial.PhaseFinished:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, messageStyle.Render(finishedText))
	default:
		body = m.renderCanvas()
	}
	return body + "\n" + m.renderFooter()
}

func (m *Model) renderFooter() string {
	done, total := m.ctrl.Progress()
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	state := m.ctrl.Schedule()
	segments := []string{
		fmt.Sprintf("Progress: %d of %d", done, total),
		fmt.Sprintf("Participant %d", state.Participant),
	}
	if m.ctrl.Phase() == trial.PhaseExperiment {
		segments = append(segments,
			fmt.Sprintf("%s %d/%d", m.ctrl.Condition(), m.ctrl.Repetition(), m.cfg.Repetitions),
			fmt.Sprintf("Clicks %d", m.ctrl.Clicks()),
		)
		if m.ctrl.AssistActive() {
			segments = append(segments, "Helper on")
		}
	}
	line := m.progress.ViewAs(percent) + " " + footerStyle.Render(strings.Join(segments, "  "))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func (m *Model) canvasRows() int {
	return max(1, m.height-1)
}

func (m *Model) onCanvas(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.canvasRows()
}

// toCanvas maps the centre of a terminal cell to canvas coordinates.
func (m *Model) toCanvas(col, row int) model.Point {
	return model.Point{
		X: (float64(col) + 0.5) * float64(m.cfg.ScreenWidth) / float64(m.width),
		Y: (float64(row) + 0.5) * float64(m.cfg.ScreenHeight) / float64(m.canvasRows()),
	}
}

// toCell maps canvas coordinates to the terminal cell containing them.
func (m *Model) toCell(p model.Point) (col, row int) {
	col = int(math.Floor(p.X * float64(m.width) / float64(m.cfg.ScreenWidth)))
	row = int(math.Floor(p.Y * float64(m.canvasRows()) / float64(m.cfg.ScreenHeight)))
	return col, row
}

func (m *Model) renderCanvas() string {
	c := newCanvas(m.width, m.canvasRows())
	c.text(0, 1, taskHint, &hintStyle)
	lay := m.ctrl.Layout()
	kind := m.ctrl.Condition().Kind()
	for _, shape := range lay.Shapes {
		style := &shapeStyle
		if shape.Target {
			style = &targetStyle
		}
		m.drawShape(c, shape.Center(lay.ShapeSize), lay.ShapeSize, kind, style)
	}
	if col, row := m.toCell(m.ctrl.Start()); c.inside(col, row) {
		c.set(col, row, startGlyph, &startStyle)
	}
	if m.hasCursor {
		if col, row := m.toCell(m.cursor()); c.inside(col, row) {
			c.set(col, row, cursorGlyph, &cursorStyle)
		}
	}
	return c.String()
}
