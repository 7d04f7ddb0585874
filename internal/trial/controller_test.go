package trial

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuifitts/internal/layout"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/schedule"
	"github.com/verte-zerg/tuifitts/internal/triallog"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixedLayouts struct {
	target model.Point
	calls  int
}

func (f *fixedLayouts) Generate(p layout.Params) (layout.Layout, error) {
	f.calls++
	half := p.ShapeSize / 2
	return layout.Layout{
		Shapes: []layout.Shape{
			{ID: 0, Pos: model.Point{X: f.target.X - half, Y: f.target.Y - half}, Target: true},
			{ID: 1, Pos: model.Point{X: 700, Y: 500}},
		},
		Targets:   []model.Point{f.target},
		ShapeSize: p.ShapeSize,
	}, nil
}

type failingSink struct{}

func (failingSink) Append(model.TrialRecord) error {
	return errors.New("disk full")
}

func testConfig(testType string) model.Config {
	return model.Config{
		Participant:     1,
		ShapeWidth:      40,
		Shapes:          2,
		Targets:         1,
		ScreenWidth:     1000,
		ScreenHeight:    700,
		Repetitions:     2,
		Spacing:         10,
		GravityDistance: 50,
		Smoothing:       10,
		TestType:        testType,
	}
}

type harness struct {
	ctrl    *Controller
	clock   *fakeClock
	layouts *fixedLayouts
	log     *triallog.Logger
}

func newHarness(t *testing.T, cfg model.Config) *harness {
	t.Helper()
	h := &harness{
		clock:   &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		layouts: &fixedLayouts{target: model.Point{X: 200, Y: 200}},
		log:     triallog.New(),
	}
	ctrl, err := New(Options{Config: cfg, Layouts: h.layouts, Sink: h.log, Clock: h.clock})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

// hit leaves the dead zone, waits, and clicks the target.
func (h *harness) hit(t *testing.T) PressResult {
	t.Helper()
	h.ctrl.PointerMove(520, 350)
	h.clock.advance(250 * time.Millisecond)
	res, err := h.ctrl.PointerPress(200, 200, ButtonPrimary)
	require.NoError(t, err)
	require.True(t, res.Hit)
	return res
}

func TestExplanationPressStartsExperiment(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	assert.Equal(t, PhaseExplanation, h.ctrl.Phase())
	assert.Equal(t, MoveResult{}, h.ctrl.PointerMove(900, 900))

	res, err := h.ctrl.PointerPress(10, 10, ButtonSecondary)
	require.NoError(t, err)
	assert.Equal(t, PhaseExperiment, res.Phase)
	require.NotNil(t, res.Warp)
	assert.Equal(t, model.Point{X: 500, Y: 350}, *res.Warp)
	assert.Equal(t, 0, h.ctrl.Clicks())
	assert.False(t, h.ctrl.watch.Running())
}

func TestTimerStartsOnceOutsideDeadZone(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)

	assert.False(t, h.ctrl.PointerMove(505, 345).TimerStarted, "inside the dead zone")
	assert.True(t, h.ctrl.PointerMove(506, 350).TimerStarted)
	assert.False(t, h.ctrl.PointerMove(600, 350).TimerStarted, "start is idempotent")
}

func TestMissOnlyCountsClick(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	before := h.ctrl.Layout()

	res, err := h.ctrl.PointerPress(800, 600, ButtonPrimary)
	require.NoError(t, err)
	assert.False(t, res.Hit)
	assert.Nil(t, res.Record)
	assert.Equal(t, 1, h.ctrl.Clicks())
	assert.Equal(t, 1, h.ctrl.Repetition())
	assert.Equal(t, before, h.ctrl.Layout())
	assert.Zero(t, h.log.Len())

	_, err = h.ctrl.PointerPress(200, 200, ButtonSecondary)
	require.NoError(t, err)
	assert.Equal(t, 1, h.ctrl.Clicks(), "secondary button is ignored")
}

func TestHitRecordsTrial(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	_, err = h.ctrl.PointerPress(800, 600, ButtonPrimary)
	require.NoError(t, err)
	layoutsBefore := h.layouts.calls

	res := h.hit(t)
	require.NotNil(t, res.Record)
	rec := *res.Record
	assert.Equal(t, 1, rec.Participant)
	assert.Equal(t, "Circle", rec.Condition)
	assert.Equal(t, 2, rec.Clicks)
	assert.True(t, rec.Timed)
	assert.EqualValues(t, 250, rec.ElapsedMs)
	assert.Equal(t, model.Point{X: 200, Y: 200}, rec.Click)
	assert.Equal(t, model.Point{X: 500, Y: 350}, rec.Start)
	assert.False(t, rec.HelperEnabled)
	assert.Equal(t, 40, rec.TargetWidth)

	assert.Equal(t, 0, h.ctrl.Clicks())
	assert.Equal(t, 2, h.ctrl.Repetition())
	assert.Equal(t, layoutsBefore+1, h.layouts.calls)
	assert.Equal(t, []model.TrialRecord{rec}, h.log.Records())
	require.NotNil(t, res.Warp)
	assert.Equal(t, h.ctrl.Start(), *res.Warp)
}

func TestHitWithoutMovementIsUntimed(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	res, err := h.ctrl.PointerPress(200, 200, ButtonPrimary)
	require.NoError(t, err)
	require.True(t, res.Hit)
	assert.False(t, res.Record.Timed)
	assert.Zero(t, res.Record.ElapsedMs)
}

func TestConditionAdvancesAfterRepetitions(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	startColumn := h.ctrl.Schedule().Column

	h.hit(t)
	assert.Equal(t, schedule.Circle, h.ctrl.Condition())
	h.hit(t)

	assert.Equal(t, 2, h.log.Len())
	assert.Equal(t, 1, h.ctrl.Repetition())
	assert.Equal(t, startColumn+1, h.ctrl.Schedule().Column)
	assert.Equal(t, schedule.CircleHelper, h.ctrl.Condition())
	assert.True(t, h.ctrl.AssistActive())
	assert.Equal(t, PhaseExperiment, h.ctrl.Phase())
	done, total := h.ctrl.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 8, total)
}

func TestFinishAndNextParticipant(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)

	var conditions []string
	var last PressResult
	for i := 0; i < 8; i++ {
		last = h.hit(t)
		conditions = append(conditions, last.Record.Condition)
	}
	assert.Equal(t, []string{
		"Circle", "Circle",
		"CircleHelper", "CircleHelper",
		"SquareHelper", "SquareHelper",
		"Square", "Square",
	}, conditions)
	assert.Equal(t, PhaseFinished, h.ctrl.Phase())
	assert.Equal(t, PhaseFinished, last.Phase)
	assert.Nil(t, last.Warp, "no cursor reset once the run is finished")
	assert.Equal(t, 8, h.log.Len())

	assert.Equal(t, MoveResult{}, h.ctrl.PointerMove(10, 10))
	res, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	assert.Equal(t, PhaseExplanation, res.Phase)
	assert.Equal(t, schedule.State{Participant: 2, Row: 1, Column: 0, Completed: 1}, h.ctrl.Schedule())
	assert.Equal(t, schedule.SquareHelper, h.ctrl.Condition())
	assert.Equal(t, 1, h.ctrl.Repetition())
	done, _ := h.ctrl.Progress()
	assert.Zero(t, done)
}

func TestAssistOnlyInHelperConditions(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeFull))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)

	assert.Nil(t, h.ctrl.PointerMove(230, 200).Warp, "circle condition is unassisted")
	h.hit(t)
	h.hit(t)
	require.Equal(t, schedule.CircleHelper, h.ctrl.Condition())

	res := h.ctrl.PointerMove(230, 200)
	require.NotNil(t, res.Warp)
	assert.InDelta(t, 227, res.Warp.X, 1e-9)
	assert.InDelta(t, 200, res.Warp.Y, 1e-9)
	assert.Nil(t, h.ctrl.PointerMove(400, 200).Warp, "outside the gravity radius")
}

func TestSingleModeUsesHelperFlag(t *testing.T) {
	cfg := testConfig(schedule.TestTypeSingle)
	cfg.HelperEnabled = true
	h := newHarness(t, cfg)
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	assert.True(t, h.ctrl.AssistActive())
	assert.NotNil(t, h.ctrl.PointerMove(230, 200).Warp)

	cfg.HelperEnabled = false
	h = newHarness(t, cfg)
	_, err = h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	assert.False(t, h.ctrl.AssistActive())
	assert.Nil(t, h.ctrl.PointerMove(230, 200).Warp)
}

func TestSingleModeFinishesAfterTwoConditions(t *testing.T) {
	h := newHarness(t, testConfig(schedule.TestTypeSingle))
	_, err := h.ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		h.hit(t)
	}
	assert.Equal(t, PhaseFinished, h.ctrl.Phase())
}

func TestSinkFailureIsReturned(t *testing.T) {
	h := &fixedLayouts{target: model.Point{X: 200, Y: 200}}
	ctrl, err := New(Options{Config: testConfig(schedule.TestTypeFull), Layouts: h, Sink: Sinks{triallog.New(), failingSink{}}})
	require.NoError(t, err)
	_, err = ctrl.PointerPress(0, 0, ButtonPrimary)
	require.NoError(t, err)
	_, err = ctrl.PointerPress(200, 200, ButtonPrimary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestNewRejectsUnknownTestType(t *testing.T) {
	_, err := New(Options{Config: testConfig("half"), Layouts: &fixedLayouts{}, Sink: triallog.New()})
	assert.Error(t, err)
}

func TestControllerWithRealGenerator(t *testing.T) {
	cfg := testConfig(schedule.TestTypeFull)
	cfg.Shapes = 15
	cfg.Targets = 2
	ctrl, err := New(Options{Config: cfg, Layouts: layout.NewWithSeed(11), Sink: triallog.New()})
	require.NoError(t, err)
	lay := ctrl.Layout()
	assert.Len(t, lay.Shapes, 15)
	assert.Len(t, lay.Targets, 2)
}
