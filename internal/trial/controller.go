// Package trial runs the pointing experiment state machine.
package trial

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuifitts/internal/assist"
	"github.com/verte-zerg/tuifitts/internal/layout"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/schedule"
)

// DeadZone is how far the pointer may drift from the start point, on either axis,
// before the trial clock starts.
const DeadZone = 5

// Phase is the experiment phase.
type Phase int

// Phases.
const (
	PhaseExplanation Phase = iota
	PhaseExperiment
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseExplanation:
		return "explanation"
	case PhaseExperiment:
		return "experiment"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Button identifies a pointer button.
type Button int

// Buttons.
const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// Sink receives completed trials.
type Sink interface {
	Append(rec model.TrialRecord) error
}

// Sinks fans a record out to several sinks.
type Sinks []Sink

// Append implements Sink. Every sink is tried; failures are joined.
func (s Sinks) Append(rec model.TrialRecord) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Append(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LayoutSource produces layouts.
type LayoutSource interface {
	Generate(p layout.Params) (layout.Layout, error)
}

// Options configures a Controller.
type Options struct {
	Config  model.Config
	Layouts LayoutSource
	Sink    Sink
	Clock   Clock
	Logger  *zap.Logger
}

// PressResult describes the effect of a pointer press.
type PressResult struct {
	Phase  Phase
	Hit    bool
	Record *model.TrialRecord
	// Warp is set when the host should move the cursor.
	Warp *model.Point
}

// MoveResult describes the effect of a pointer move.
type MoveResult struct {
	TimerStarted bool
	// Warp is the assisted cursor position, when assistance adjusted it.
	Warp *model.Point
}

// Controller owns the layout, schedule and counters of one experiment run.
type Controller struct {
	cfg     model.Config
	layouts LayoutSource
	sink    Sink
	watch   *Stopwatch
	clock   Clock
	logger  *zap.Logger
	assist  *assist.Assist

	sched  *schedule.Scheduler
	layout layout.Layout
	start  model.Point

	phase      Phase
	clicks     int
	repetition int
	done       int
}

// New returns a controller in the explanation phase with a fresh layout.
func New(opts Options) (*Controller, error) {
	cfg := opts.Config
	square, err := schedule.SquareFor(cfg.TestType)
	if err != nil {
		return nil, err
	}
	if opts.Layouts == nil {
		return nil, fmt.Errorf("layout source is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("trial sink is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		cfg:        cfg,
		layouts:    opts.Layouts,
		sink:       opts.Sink,
		watch:      NewStopwatch(clock),
		clock:      clock,
		logger:     logger,
		sched:      schedule.New(square, cfg.Participant),
		start:      model.Point{X: math.Floor(float64(cfg.ScreenWidth) / 2), Y: math.Floor(float64(cfg.ScreenHeight) / 2)},
		phase:      PhaseExplanation,
		repetition: 1,
	}
	if cfg.TestType == schedule.TestTypeFull || cfg.HelperEnabled {
		smoothing := cfg.Smoothing
		if smoothing == 0 {
			smoothing = assist.DefaultSmoothing
		}
		a, err := assist.New(assist.Config{
			ShapeWidth:      float64(cfg.ShapeWidth),
			GravityDistance: float64(cfg.GravityDistance),
			Smoothing:       smoothing,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure cursor assist: %w", err)
		}
		c.assist = a
	}
	if err := c.relayout(); err != nil {
		return nil, err
	}
	return c, nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Layout returns the active layout.
func (c *Controller) Layout() layout.Layout {
	return c.layout
}

// Condition returns the active condition.
func (c *Controller) Condition() schedule.Condition {
	return c.sched.Current()
}

// Schedule returns the scheduler state.
func (c *Controller) Schedule() schedule.State {
	return c.sched.State()
}

// Participant returns the current participant id.
func (c *Controller) Participant() int {
	return c.sched.State().Participant
}

// Clicks returns the presses counted in the running trial.
func (c *Controller) Clicks() int {
	return c.clicks
}

// Repetition returns the 1-based repetition within the current condition.
func (c *Controller) Repetition() int {
	return c.repetition
}

// Start returns the canvas-centre start point.
func (c *Controller) Start() model.Point {
	return c.start
}

// AssistActive reports whether moves are filtered through the cursor assist.
func (c *Controller) AssistActive() bool {
	return c.assist != nil && schedule.AssistActive(c.cfg.TestType, c.sched.Current(), c.cfg.HelperEnabled)
}

// Progress returns completed and total trials for the participant.
func (c *Controller) Progress() (done, total int) {
	return c.done, c.cfg.Repetitions * c.sched.Square().Size()
}

// PointerPress handles a press at canvas coordinates x, y.
func (c *Controller) PointerPress(x, y int, button Button) (PressResult, error) {
	switch c.phase {
	case PhaseExplanation:
		c.setPhase(PhaseExperiment)
		warp := c.start
		return PressResult{Phase: c.phase, Warp: &warp}, nil
	case PhaseExperiment:
		if button != ButtonPrimary {
			return PressResult{Phase: c.phase}, nil
		}
		return c.press(model.Point{X: float64(x), Y: float64(y)})
	case PhaseFinished:
		if err := c.resetParticipant(c.sched.State().Participant + 1); err != nil {
			return PressResult{}, err
		}
		c.setPhase(PhaseExplanation)
		return PressResult{Phase: c.phase}, nil
	default:
		return PressResult{}, fmt.Errorf("unknown phase %s", c.phase)
	}
}

// PointerMove handles pointer motion to canvas coordinates x, y.
func (c *Controller) PointerMove(x, y int) MoveResult {
	switch c.phase {
	case PhaseExperiment:
		return c.move(model.Point{X: float64(x), Y: float64(y)})
	case PhaseExplanation, PhaseFinished:
		return MoveResult{}
	default:
		return MoveResult{}
	}
}

func (c *Controller) move(pos model.Point) MoveResult {
	var res MoveResult
	if math.Abs(pos.X-c.start.X) > DeadZone || math.Abs(pos.Y-c.start.Y) > DeadZone {
		res.TimerStarted = c.watch.Start()
	}
	if c.AssistActive() {
		if adjusted, ok := c.assist.Filter(pos, c.layout.Targets); ok {
			res.Warp = &adjusted
		}
	}
	return res
}

func (c *Controller) press(click model.Point) (PressResult, error) {
	c.clicks++
	cond := c.sched.Current()
	target, hit := HitTest(cond.Kind(), click, c.layout.Targets, float64(c.cfg.ShapeWidth))
	if !hit {
		c.logger.Debug("miss", zap.Float64("x", click.X), zap.Float64("y", click.Y), zap.Int("clicks", c.clicks))
		return PressResult{Phase: c.phase}, nil
	}

	elapsed, timed := c.watch.Stop()
	rec := model.TrialRecord{
		Participant:   c.sched.State().Participant,
		Timestamp:     c.clock.Now(),
		Condition:     cond.String(),
		Clicks:        c.clicks,
		ElapsedMs:     elapsed,
		Timed:         timed,
		Click:         click,
		Start:         c.start,
		Target:        target,
		TargetWidth:   c.cfg.ShapeWidth,
		Shapes:        c.cfg.Shapes,
		ScreenWidth:   c.cfg.ScreenWidth,
		ScreenHeight:  c.cfg.ScreenHeight,
		HelperEnabled: c.AssistActive(),
	}
	if err := c.sink.Append(rec); err != nil {
		return PressResult{}, fmt.Errorf("failed to record trial: %w", err)
	}
	c.logger.Debug("hit",
		zap.String("condition", rec.Condition),
		zap.Int("clicks", rec.Clicks),
		zap.Int64("elapsed_ms", rec.ElapsedMs),
		zap.Bool("timed", rec.Timed),
	)

	c.clicks = 0
	c.done++
	if err := c.relayout(); err != nil {
		return PressResult{}, err
	}
	c.repetition++
	if c.repetition > c.cfg.Repetitions {
		if c.sched.RowComplete() {
			c.setPhase(PhaseFinished)
		} else {
			if err := c.sched.Advance(); err != nil {
				return PressResult{}, err
			}
			c.repetition = 1
			c.logger.Info("condition advanced",
				zap.Int("participant", c.sched.State().Participant),
				zap.String("condition", c.sched.Current().String()),
				zap.Int("column", c.sched.State().Column),
			)
		}
	}
	res := PressResult{Phase: c.phase, Hit: true, Record: &rec}
	if c.phase == PhaseExperiment {
		warp := c.start
		res.Warp = &warp
	}
	return res, nil
}

func (c *Controller) resetParticipant(participant int) error {
	c.sched.Reset(participant)
	c.repetition = 1
	c.clicks = 0
	c.done = 0
	c.watch = NewStopwatch(c.clock)
	if err := c.relayout(); err != nil {
		return err
	}
	c.logger.Info("participant reset",
		zap.Int("participant", participant),
		zap.Int("row", c.sched.State().Row),
		zap.String("condition", c.sched.Current().String()),
	)
	return nil
}

func (c *Controller) relayout() error {
	lay, err := c.layouts.Generate(layout.Params{
		Count:        c.cfg.Shapes,
		Targets:      c.cfg.Targets,
		CanvasWidth:  float64(c.cfg.ScreenWidth),
		CanvasHeight: float64(c.cfg.ScreenHeight),
		ShapeSize:    float64(c.cfg.ShapeWidth),
		Spacing:      float64(c.cfg.Spacing),
	})
	if err != nil {
		return fmt.Errorf("failed to generate layout: %w", err)
	}
	if lay.Exhausted {
		c.logger.Warn("layout placement budget exhausted", zap.Int("shapes", len(lay.Shapes)))
	}
	if len(lay.Targets) < c.cfg.Targets {
		c.logger.Warn("fewer targets than requested", zap.Int("requested", c.cfg.Targets), zap.Int("placed", len(lay.Targets)))
	}
	c.layout = lay
	return nil
}

func (c *Controller) setPhase(p Phase) {
	if c.phase == p {
		return
	}
	c.logger.Info("phase changed", zap.Stringer("from", c.phase), zap.Stringer("to", p), zap.Int("participant", c.sched.State().Participant))
	c.phase = p
}
