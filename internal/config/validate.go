package config

import (
	"fmt"

	"github.com/verte-zerg/tuifitts/internal/layout"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/schedule"
)

// Minimum canvas size; smaller screens are raised to it.
const (
	MinScreenWidth  = 850
	MinScreenHeight = 650
)

// ClampScreen raises the screen dimensions to the minimum canvas size.
func ClampScreen(cfg model.Config) model.Config {
	if cfg.ScreenWidth < MinScreenWidth {
		cfg.ScreenWidth = MinScreenWidth
	}
	if cfg.ScreenHeight < MinScreenHeight {
		cfg.ScreenHeight = MinScreenHeight
	}
	return cfg
}

// Validate rejects settings the experiment cannot run with.
func Validate(cfg model.Config) error {
	if cfg.Participant < 1 {
		return fmt.Errorf("--participant must be >= 1")
	}
	if cfg.ShapeWidth <= 0 {
		return fmt.Errorf("--shape-width must be > 0")
	}
	if cfg.Shapes <= 0 {
		return fmt.Errorf("--shapes must be > 0")
	}
	if cfg.Targets <= 0 {
		return fmt.Errorf("--targets must be > 0")
	}
	if cfg.Targets > cfg.Shapes {
		return fmt.Errorf("--targets must be <= --shapes")
	}
	if cfg.Repetitions <= 0 {
		return fmt.Errorf("--repetitions must be > 0")
	}
	if cfg.Spacing < 0 {
		return fmt.Errorf("--spacing must be >= 0")
	}
	if cfg.GravityDistance < 0 {
		return fmt.Errorf("--gravity must be >= 0")
	}
	if cfg.Smoothing < 1 {
		return fmt.Errorf("--smoothing must be >= 1")
	}
	if cfg.TestType != schedule.TestTypeFull && cfg.TestType != schedule.TestTypeSingle {
		return fmt.Errorf("--test-type must be %q or %q", schedule.TestTypeFull, schedule.TestTypeSingle)
	}
	if cfg.ShapeWidth >= cfg.ScreenWidth || cfg.ShapeWidth >= cfg.ScreenHeight-layout.HeaderHeight {
		return fmt.Errorf("--shape-width %d does not fit a %dx%d screen", cfg.ShapeWidth, cfg.ScreenWidth, cfg.ScreenHeight)
	}
	return nil
}
