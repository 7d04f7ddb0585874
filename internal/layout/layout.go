// Package layout places target and distractor shapes on the canvas.
package layout

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/tuifitts/internal/model"
)

const (
	// HeaderHeight is the top band reserved for on-screen instructions.
	HeaderHeight = 50
	// MaxPlacementAttempts bounds the candidates drawn for one shape position.
	MaxPlacementAttempts = 1000
	// MaxTargetAttempts bounds the retries for one target slot.
	MaxTargetAttempts = 1000
)

// ErrInvalidParams reports layout parameters that can never be satisfied.
var ErrInvalidParams = errors.New("invalid layout parameters")

// Shape is one clickable shape. Pos is the top-left corner of its bounding box.
type Shape struct {
	ID     int
	Pos    model.Point
	Target bool
}

// Center returns the center of the shape for the given shape size.
func (s Shape) Center(size float64) model.Point {
	return model.Point{X: s.Pos.X + size/2, Y: s.Pos.Y + size/2}
}

// Layout is the full set of shapes for one trial.
type Layout struct {
	Shapes    []Shape
	Targets   []model.Point
	ShapeSize float64
	// Exhausted is set when at least one position used its whole placement budget.
	Exhausted bool
}

// Params describes one layout request.
type Params struct {
	Count        int
	Targets      int
	CanvasWidth  float64
	CanvasHeight float64
	ShapeSize    float64
	Spacing      float64
}

// Generator produces randomized layouts.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate spreads shapes over the canvas and marks targets among them.
func (g *Generator) Generate(p Params) (Layout, error) {
	positions, exhausted, err := g.Spread(p.Count, p.CanvasWidth-p.ShapeSize, p.CanvasHeight-p.ShapeSize, p.ShapeSize, p.Spacing)
	if err != nil {
		return Layout{}, err
	}
	shapes := make([]Shape, len(positions))
	for i, pos := range positions {
		shapes[i] = Shape{ID: i, Pos: pos}
	}
	targets := g.SelectTargets(shapes, p.Targets, p.ShapeSize)
	return Layout{
		Shapes:    shapes,
		Targets:   targets,
		ShapeSize: p.ShapeSize,
		Exhausted: exhausted,
	}, nil
}

// Spread returns count positions inside [0,width]x[0,height], below the header strip,
// each at least size+spacing away from every other. A position that cannot be placed
// within MaxPlacementAttempts takes the best candidate seen and exhausted is reported.
func (g *Generator) Spread(count int, width, height, size, spacing float64) (positions []model.Point, exhausted bool, err error) {
	if count < 0 || size <= 0 || spacing < 0 || width < 0 || height <= HeaderHeight {
		return nil, false, fmt.Errorf("%w: count=%d bounds=%.0fx%.0f size=%.0f spacing=%.0f",
			ErrInvalidParams, count, width, height, size, spacing)
	}
	minDist := size + spacing
	positions = make([]model.Point, 0, count)
	for i := 0; i < count; i++ {
		var best model.Point
		bestClearance := -1.0
		placed := false
		for attempt := 0; attempt < MaxPlacementAttempts; attempt++ {
			candidate := g.candidate(width, height)
			clearance := nearestDistance(candidate, positions)
			if clearance >= minDist {
				best = candidate
				placed = true
				break
			}
			if clearance > bestClearance {
				best = candidate
				bestClearance = clearance
			}
		}
		if !placed {
			exhausted = true
		}
		positions = append(positions, best)
	}
	return positions, exhausted, nil
}

// candidate draws a random position, rejecting the reserved header strip.
func (g *Generator) candidate(width, height float64) model.Point {
	for {
		p := model.Point{
			X: g.rnd.Float64() * width,
			Y: g.rnd.Float64() * height,
		}
		if p.Y > HeaderHeight {
			return p
		}
	}
}

// SelectTargets marks up to targetCount distinct shapes as targets and returns their
// centers in marking order. A slot that keeps drawing already-marked shapes for
// MaxTargetAttempts retries is skipped.
func (g *Generator) SelectTargets(shapes []Shape, targetCount int, size float64) []model.Point {
	if len(shapes) == 0 || targetCount <= 0 {
		return nil
	}
	targets := make([]model.Point, 0, targetCount)
	for slot := 0; slot < targetCount; slot++ {
		idx := g.rnd.Intn(len(shapes))
		retries := 0
		for shapes[idx].Target && retries < MaxTargetAttempts {
			retries++
			idx = g.rnd.Intn(len(shapes))
		}
		if shapes[idx].Target {
			continue
		}
		shapes[idx].Target = true
		targets = append(targets, shapes[idx].Center(size))
	}
	return targets
}

func nearestDistance(p model.Point, others []model.Point) float64 {
	nearest := math.Inf(1)
	for _, o := range others {
		if d := p.Dist(o); d < nearest {
			nearest = d
		}
	}
	return nearest
}
