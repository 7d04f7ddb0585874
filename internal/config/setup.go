package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrMissingField reports a required setup key that is absent.
var ErrMissingField = errors.New("missing required setup field")

// SetupFile is an experiment setup document with an "experiment" root.
type SetupFile struct {
	Experiment Setup `json:"experiment" yaml:"experiment" toml:"experiment"`
}

// Setup holds one study's settings in the camelCase key format used by setup files.
type Setup struct {
	UserID                *int     `json:"userId" yaml:"userId" toml:"userId"`
	ShapeWidth            *int     `json:"shapeWidth" yaml:"shapeWidth" toml:"shapeWidth"`
	NumberShapes          *int     `json:"numberShapes" yaml:"numberShapes" toml:"numberShapes"`
	HelperEnabled         *bool    `json:"helperEnabled" yaml:"helperEnabled" toml:"helperEnabled"`
	NumberValidTargets    *int     `json:"numberValidTargets" yaml:"numberValidTargets" toml:"numberValidTargets"`
	ScreenWidth           *int     `json:"screenWidth" yaml:"screenWidth" toml:"screenWidth"`
	ScreenHeight          *int     `json:"screenHeight" yaml:"screenHeight" toml:"screenHeight"`
	Repetitions           *int     `json:"repetitions" yaml:"repetitions" toml:"repetitions"`
	DistanceBetweenShapes *int     `json:"distanceBetweenShapes" yaml:"distanceBetweenShapes" toml:"distanceBetweenShapes"`
	TestType              *string  `json:"testType" yaml:"testType" toml:"testType"`
	HelperGravityDistance *int     `json:"helperGravityDistance" yaml:"helperGravityDistance" toml:"helperGravityDistance"`
	Smoothing             *float64 `json:"smoothing,omitempty" yaml:"smoothing,omitempty" toml:"smoothing,omitempty"`
}

// LoadSetup reads a setup file, choosing the decoder by extension.
func LoadSetup(path string) (Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Setup{}, fmt.Errorf("failed to read setup: %w", err)
	}
	var file SetupFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		_, err = toml.Decode(string(data), &file)
	default:
		return Setup{}, fmt.Errorf("unsupported setup format %q (want .json, .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return Setup{}, fmt.Errorf("failed to decode setup: %w", err)
	}
	if err := file.Experiment.checkRequired(); err != nil {
		return Setup{}, err
	}
	return file.Experiment, nil
}

func (s Setup) checkRequired() error {
	required := []struct {
		name string
		set  bool
	}{
		{"userId", s.UserID != nil},
		{"shapeWidth", s.ShapeWidth != nil},
		{"numberShapes", s.NumberShapes != nil},
		{"helperEnabled", s.HelperEnabled != nil},
		{"numberValidTargets", s.NumberValidTargets != nil},
		{"screenWidth", s.ScreenWidth != nil},
		{"screenHeight", s.ScreenHeight != nil},
		{"repetitions", s.Repetitions != nil},
		{"distanceBetweenShapes", s.DistanceBetweenShapes != nil},
		{"testType", s.TestType != nil},
		{"helperGravityDistance", s.HelperGravityDistance != nil},
	}
	var missing []string
	for _, r := range required {
		if !r.set {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// Experiment converts a setup into file-config form so it can be layered under CLI flags.
func (s Setup) Experiment() ExperimentConfig {
	return ExperimentConfig{
		Participant:     s.UserID,
		ShapeWidth:      s.ShapeWidth,
		Shapes:          s.NumberShapes,
		Targets:         s.NumberValidTargets,
		ScreenWidth:     s.ScreenWidth,
		ScreenHeight:    s.ScreenHeight,
		Repetitions:     s.Repetitions,
		Spacing:         s.DistanceBetweenShapes,
		Helper:          s.HelperEnabled,
		GravityDistance: s.HelperGravityDistance,
		Smoothing:       s.Smoothing,
		TestType:        s.TestType,
	}
}

// Merge returns e with every field that override sets replaced.
func (e ExperimentConfig) Merge(override ExperimentConfig) ExperimentConfig {
	out := e
	if override.Participant != nil {
		out.Participant = override.Participant
	}
	if override.ShapeWidth != nil {
		out.ShapeWidth = override.ShapeWidth
	}
	if override.Shapes != nil {
		out.Shapes = override.Shapes
	}
	if override.Targets != nil {
		out.Targets = override.Targets
	}
	if override.ScreenWidth != nil {
		out.ScreenWidth = override.ScreenWidth
	}
	if override.ScreenHeight != nil {
		out.ScreenHeight = override.ScreenHeight
	}
	if override.Repetitions != nil {
		out.Repetitions = override.Repetitions
	}
	if override.Spacing != nil {
		out.Spacing = override.Spacing
	}
	if override.Helper != nil {
		out.Helper = override.Helper
	}
	if override.GravityDistance != nil {
		out.GravityDistance = override.GravityDistance
	}
	if override.Smoothing != nil {
		out.Smoothing = override.Smoothing
	}
	if override.TestType != nil {
		out.TestType = override.TestType
	}
	return out
}
