// Package model defines shared data structures.
package model

import (
	"math"
	"time"
)

// Point is a canvas-local coordinate.
type Point struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by f on both axes.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Config defines experiment settings.
type Config struct {
	Participant     int
	ShapeWidth      int
	Shapes          int
	Targets         int
	ScreenWidth     int
	ScreenHeight    int
	Repetitions     int
	Spacing         int
	HelperEnabled   bool
	GravityDistance int
	Smoothing       float64
	TestType        string
	Seed            int64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Participant int
	Condition   string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// TrialRecord captures one completed trial. Records are never mutated after creation.
type TrialRecord struct {
	Participant   int
	Timestamp     time.Time
	Condition     string
	Clicks        int
	ElapsedMs     int64
	Timed         bool
	Click         Point
	Start         Point
	Target        Point
	TargetWidth   int
	Shapes        int
	ScreenWidth   int
	ScreenHeight  int
	HelperEnabled bool
}

// StoredTrial is a persisted trial with its row and run identifiers.
type StoredTrial struct {
	ID    int64
	RunID string
	TrialRecord
}

// ConditionAggregate summarizes trials for one condition.
type ConditionAggregate struct {
	Condition    string
	Trials       int
	Clicks       int
	TimedTrials  int
	ElapsedMsSum int64
}

// ParticipantAggregate summarizes trials for one participant.
type ParticipantAggregate struct {
	Participant  int
	Trials       int
	Clicks       int
	TimedTrials  int
	ElapsedMsSum int64
	FirstAt      time.Time
	LastAt       time.Time
}
