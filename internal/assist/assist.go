// Package assist implements the magnetic pointer that pulls the cursor toward nearby targets.
package assist

import (
	"fmt"
	"math"

	"github.com/verte-zerg/tuifitts/internal/model"
)

// DefaultSmoothing closes a tenth of the remaining distance per move event.
const DefaultSmoothing = 10.0

// Config holds the read-only assist parameters.
type Config struct {
	ShapeWidth      float64
	GravityDistance float64
	Smoothing       float64
}

// Validate checks that the parameters describe a usable pull.
func (c Config) Validate() error {
	if c.ShapeWidth <= 0 {
		return fmt.Errorf("shape width must be > 0")
	}
	if c.GravityDistance < 0 {
		return fmt.Errorf("gravity distance must be >= 0")
	}
	if c.Smoothing < 1 {
		return fmt.Errorf("smoothing must be >= 1")
	}
	return nil
}

// Radius is the distance from a target center below which the pull activates.
func (c Config) Radius() float64 {
	return c.ShapeWidth/2 + c.GravityDistance
}

// Nearest returns the closest target to cursor. Ties keep the first target found.
func Nearest(cursor model.Point, targets []model.Point) (target model.Point, distance float64, ok bool) {
	distance = math.Inf(1)
	for _, t := range targets {
		if d := cursor.Dist(t); d < distance {
			target = t
			distance = d
			ok = true
		}
	}
	return target, distance, ok
}

// Filter returns the adjusted cursor position and true when the cursor is inside the
// gravity radius of its nearest target. Otherwise, or when cfg fails Validate, it
// returns cursor and false.
func Filter(cursor model.Point, targets []model.Point, cfg Config) (model.Point, bool) {
	if cfg.Validate() != nil {
		return cursor, false
	}
	target, distance, ok := Nearest(cursor, targets)
	if !ok || distance >= cfg.Radius() {
		return cursor, false
	}
	return cursor.Add(target.Sub(cursor).Scale(1 / cfg.Smoothing)), true
}

// Assist applies Filter with a fixed configuration.
type Assist struct {
	cfg Config
}

// New returns an Assist for cfg.
func New(cfg Config) (*Assist, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Assist{cfg: cfg}, nil
}

// Config returns the assist parameters.
func (a *Assist) Config() Config {
	return a.cfg
}

// Filter adjusts cursor toward the nearest of targets.
func (a *Assist) Filter(cursor model.Point, targets []model.Point) (model.Point, bool) {
	return Filter(cursor, targets, a.cfg)
}
