package tui

import (
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuifitts/internal/layout"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/trial"
	"github.com/verte-zerg/tuifitts/internal/triallog"
)

type brokenSink struct{}

func (brokenSink) Append(model.TrialRecord) error {
	return errors.New("disk full")
}

func testConfig() model.Config {
	return model.Config{
		Participant:     1,
		ShapeWidth:      40,
		Shapes:          10,
		Targets:         1,
		ScreenWidth:     960,
		ScreenHeight:    660,
		Repetitions:     2,
		Spacing:         10,
		GravityDistance: 50,
		TestType:        "full",
	}
}

func newTestModel(t *testing.T, sink trial.Sink) *Model {
	t.Helper()
	cfg := testConfig()
	ctrl, err := trial.New(trial.Options{
		Config:  cfg,
		Layouts: layout.NewWithSeed(7),
		Sink:    sink,
	})
	require.NoError(t, err)
	m := NewModel(ctrl, cfg, nil)
	m.Update(tea.WindowSizeMsg{Width: 96, Height: 67})
	return m
}

func press(col, row int) tea.MouseMsg {
	return tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func motion(col, row int) tea.MouseMsg {
	return tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}
}

// realign sweeps the pointer across the terminal until the virtual cursor sits
// under it again, the way a participant recovers reach after a cursor reset.
func realign(t *testing.T, m *Model) {
	t.Helper()
	lastCol, lastRow := m.width-1, m.canvasRows()-1
	for i := 0; i < 4; i++ {
		m.Update(motion(0, 0))
		m.Update(motion(lastCol, lastRow))
		m.Update(motion(0, 0))
		// An assisted condition may still pull the cursor by a fraction of the gravity radius.
		if m.cursor().Dist(m.toCanvas(0, 0)) <= 10 {
			return
		}
	}
	t.Fatalf("cursor %v never lined up with the pointer", m.cursor())
}

// clickCell moves the pointer to a cell and presses there.
func clickCell(m *Model, col, row int) tea.Cmd {
	m.Update(motion(col, row))
	_, cmd := m.Update(press(col, row))
	return cmd
}

func TestExplanationView(t *testing.T) {
	m := newTestModel(t, triallog.New())
	view := m.View()
	assert.Contains(t, view, "Get ready to move your mouse")
	assert.Contains(t, view, "Progress: 0 of 8")
}

func TestCellMapping(t *testing.T) {
	m := newTestModel(t, triallog.New())
	assert.Equal(t, model.Point{X: 105, Y: 105}, m.toCanvas(10, 10))
	col, row := m.toCell(model.Point{X: 105, Y: 105})
	assert.Equal(t, 10, col)
	assert.Equal(t, 10, row)
}

func TestPressStartsExperimentAndWarpsToStart(t *testing.T) {
	m := newTestModel(t, triallog.New())
	m.Update(press(5, 5))
	require.Equal(t, trial.PhaseExperiment, m.ctrl.Phase())
	assert.Equal(t, m.ctrl.Start(), m.cursor())

	// The virtual cursor follows relative motion after a warp.
	m.Update(motion(6, 5))
	assert.InDelta(t, m.ctrl.Start().X+10, m.cursor().X, 1e-9)

	view := m.View()
	assert.Contains(t, view, "Click on the red shape!")
	assert.Contains(t, view, cursorGlyph)
}

func TestClickOnTargetRecordsTrial(t *testing.T) {
	log := triallog.New()
	m := newTestModel(t, log)
	m.Update(press(5, 5))

	realign(t, m)
	col, row := m.toCell(m.ctrl.Layout().Targets[0])
	cmd := clickCell(m, col, row)
	assert.Nil(t, cmd)
	require.Equal(t, 1, log.Len())
	assert.Equal(t, "Circle", log.Records()[0].Condition)
	assert.Equal(t, m.ctrl.Start(), m.cursor())
	assert.Contains(t, m.View(), "Progress: 1 of 8")
}

func TestCanvasCornersReachableAfterReset(t *testing.T) {
	lastCol, lastRow := 95, 65
	corners := []struct {
		col, row int
		want     model.Point
	}{
		{0, 0, model.Point{X: 0, Y: 0}},
		{lastCol, 0, model.Point{X: 959, Y: 0}},
		{0, lastRow, model.Point{X: 0, Y: 659}},
		{lastCol, lastRow, model.Point{X: 959, Y: 659}},
	}
	for _, start := range [][2]int{{5, 5}, {90, 60}, {48, 33}, {0, lastRow}} {
		for _, corner := range corners {
			m := newTestModel(t, triallog.New())
			m.Update(press(start[0], start[1]))
			require.Equal(t, m.ctrl.Start(), m.cursor())

			reached := false
			for i := 0; i < 4 && !reached; i++ {
				m.Update(motion(lastCol-corner.col, lastRow-corner.row))
				m.Update(motion(corner.col, corner.row))
				got := m.cursor()
				reached = math.Abs(got.X-corner.want.X) <= 10 && math.Abs(got.Y-corner.want.Y) <= 10
			}
			assert.True(t, reached, "press at %v: corner %v unreachable, cursor stuck at %v", start, corner.want, m.cursor())
		}
	}
}

func TestFinishedRunClearsOffset(t *testing.T) {
	log := triallog.New()
	m := newTestModel(t, log)
	m.Update(press(5, 5))
	for i := 0; i < 40 && m.ctrl.Phase() == trial.PhaseExperiment; i++ {
		realign(t, m)
		col, row := m.toCell(m.ctrl.Layout().Targets[0])
		require.Nil(t, clickCell(m, col, row))
	}
	assert.Equal(t, trial.PhaseFinished, m.ctrl.Phase())
	assert.Equal(t, 8, log.Len())
	assert.Equal(t, model.Point{}, m.offset)
	assert.Contains(t, m.View(), "The experiment is finished!")
}

func TestSinkFailureQuits(t *testing.T) {
	m := newTestModel(t, brokenSink{})
	m.Update(press(5, 5))
	realign(t, m)
	col, row := m.toCell(m.ctrl.Layout().Targets[0])
	cmd := clickCell(m, col, row)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	require.Error(t, m.Err())
	assert.True(t, strings.Contains(m.Err().Error(), "disk full"))
}

func TestWheelAndFooterRowIgnored(t *testing.T) {
	m := newTestModel(t, triallog.New())
	m.Update(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	assert.Equal(t, trial.PhaseExplanation, m.ctrl.Phase())
	m.Update(press(5, 66))
	assert.Equal(t, trial.PhaseExplanation, m.ctrl.Phase())
}

func TestEscQuits(t *testing.T) {
	m := newTestModel(t, triallog.New())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
